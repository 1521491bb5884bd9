package cli

import (
	"fmt"
	"log/slog"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/pkg/logger"
	"github.com/fleetdesk/contracts/service"
)

// loadConfig reads the config file and installs the configured logger
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", opts.ConfigPath, err)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.Info("configuration loaded successfully", "path", opts.ConfigPath, "store", cfg.Store.Driver)
	return cfg, nil
}

// openRepository returns the repository selected by store.driver and a func
// releasing its resources. SQL schemas are migrated first when migrate is set.
func openRepository(cfg *config.StoreConfig, migrate bool) (service.ContractRepository, func() error, error) {
	if cfg.Driver == config.DriverMemory {
		return service.NewContractStore(cfg), func() error { return nil }, nil
	}

	db, err := service.OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := service.Migrate(db); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return service.NewGormStore(db), sqlDB.Close, nil
}
