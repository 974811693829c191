package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobapply/internal/templates"
)

func newSeedTemplatesCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed-templates",
		Args:  cobra.NoArgs,
		Short: "Store the built-in prompts as document templates",
		Long: `Insert a template row for every built-in prompt that has none.
With --force existing rows are overwritten with the built-in text.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.close()

			catalog, err := templates.LoadCatalog(e.cfg.Generation.PromptsFile)
			if err != nil {
				return err
			}
			defaults := templates.Defaults{Provider: e.cfg.LLM.DefaultProvider, Model: e.cfg.LLM.DefaultModel}
			res, err := templates.Seed(cmd.Context(), e.repos.Templates, catalog, defaults, force, e.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created=%d updated=%d skipped=%d total=%d\n", res.Created, res.Updated, res.Skipped, res.Total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing templates")
	return cmd
}
