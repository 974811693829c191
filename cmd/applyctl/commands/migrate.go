package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Args:  cobra.NoArgs,
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", e.db.Dialect())
			return nil
		},
	}
}

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Args:  cobra.NoArgs,
		Short: "Ping the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.db.HealthCheck(cmd.Context(), e.cfg.Database.DialTimeout); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DB health: OK")
			return nil
		},
	}
}
