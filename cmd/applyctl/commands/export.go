package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/export"
	"github.com/joseph-ayodele/jobapply/internal/utils"
)

func newExportCommand() *cobra.Command {
	var out, from, to string
	cmd := &cobra.Command{
		Use:   "export <user-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Write a user's application history as XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := common.ParseUUID("user-id", args[0])
			if err != nil {
				return err
			}
			fromDate, toDate, err := utils.DateRange(from, to)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			xlsx, err := export.NewService(e.repos, e.logger).ExportApplicationsXLSX(cmd.Context(), userID, fromDate, toDate)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, xlsx, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(xlsx))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "applications.xlsx", "output file")
	cmd.Flags().StringVar(&from, "from", "", "first creation date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last creation date, YYYY-MM-DD")
	return cmd
}
