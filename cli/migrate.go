package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/service"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the contract tables",
		Long: `Create or update the contract and status history tables in the
database named by store.dsn. Only the postgres and sqlite drivers have a schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			return runMigrate(&cfg.Store)
		},
	}
}

func runMigrate(cfg *config.StoreConfig) error {
	if cfg.Driver == config.DriverMemory {
		return fmt.Errorf("store driver %q has no schema to migrate", cfg.Driver)
	}

	db, err := service.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := service.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	slog.Info("schema migrated", "driver", cfg.Driver)
	return nil
}
