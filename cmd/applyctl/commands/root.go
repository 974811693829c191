package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/repository"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "applyctl",
		Short:         "Operator tooling for the jobapply services",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newSeedTemplatesCommand(),
		newCreditsCommand(),
		newExportCommand(),
		newHealthCommand(),
		newQueueCommand(),
	)

	return rootCmd
}

// env is what every subcommand needs: config, logger and an open database.
type env struct {
	cfg    *common.Config
	logger *slog.Logger
	db     *repository.DB
	repos  *repository.Repositories
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
	}
}

// openEnv loads config from the environment and connects to the database.
// Migrations are applied only when migrate is set.
func openEnv(ctx context.Context, migrate bool) (*env, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "DB_URL is required", common.ErrInvalidInput)
	}
	logger := common.NewLogger(os.Stderr, cfg.Log)
	db, err := repository.Connect(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &env{cfg: cfg, logger: logger, db: db, repos: repository.NewRepositories(db, logger)}, nil
}
