package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/handler"
	"github.com/fleetdesk/contracts/service"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	AutoMigrate bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.AutoMigrate, "auto-migrate", true, "migrate SQL schemas before serving")

	return cmd
}

// buildServer assembles the repository, lifecycle manager and router
func buildServer(ctx context.Context, cfg *config.Config, opts *ServeOptions) (*http.Server, func() error, error) {
	repo, closeRepo, err := openRepository(&cfg.Store, opts.AutoMigrate)
	if err != nil {
		return nil, nil, err
	}

	mgr := service.NewContractManager(repo, &cfg.Contracts)

	if cfg.Contracts.SeedFile != "" {
		seed, err := service.LoadSeedFile(cfg.Contracts.SeedFile)
		if err == nil {
			_, err = service.SeedContracts(ctx, mgr, seed.Contracts)
		}
		if err != nil {
			closeRepo()
			return nil, nil, fmt.Errorf("failed to seed contracts: %w", err)
		}
	}

	fees, err := service.NewFeeSchedule(&cfg.Pricing)
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(cfg, mgr, fees)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv, closeRepo, nil
}

func runServer(ctx context.Context, cfg *config.Config, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	srv, closeRepo, err := buildServer(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer closeRepo()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}
