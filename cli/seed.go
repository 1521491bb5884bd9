package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/service"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	File string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load contracts from a seed file",
		Long: `Create the contracts listed in a YAML seed file and walk each one
through its listed transitions. Seeded contracts go through the same validation
and transition rules as contracts created over the API.

Example:
  contracts seed --config config.yaml --file seed.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			file := opts.File
			if file == "" {
				file = cfg.Contracts.SeedFile
			}
			if file == "" {
				return fmt.Errorf("no seed file given: pass --file or set contracts.seed_file")
			}
			if cfg.Store.Driver == config.DriverMemory {
				slog.Warn("seeding the memory store only lasts for this process")
			}

			n, err := runSeed(cmd.Context(), cfg, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d contracts\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "seed file (defaults to contracts.seed_file)")

	return cmd
}

func runSeed(ctx context.Context, cfg *config.Config, file string) (int, error) {
	seed, err := service.LoadSeedFile(file)
	if err != nil {
		return 0, err
	}

	repo, closeRepo, err := openRepository(&cfg.Store, true)
	if err != nil {
		return 0, err
	}
	defer closeRepo()

	mgr := service.NewContractManager(repo, &cfg.Contracts)
	return service.SeedContracts(ctx, mgr, seed.Contracts)
}
