package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/coolingoff/internal/api"
	"github.com/eshaffer321/coolingoff/internal/application/profile"
	"github.com/eshaffer321/coolingoff/internal/application/purchase"
	"github.com/eshaffer321/coolingoff/internal/application/sweep"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/config"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	NoSweep bool
}

func newServeCommand(global *GlobalFlags) *cobra.Command {
	flags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled notification sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := global.load("api")
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = flags.Port
			}
			if flags.NoSweep {
				cfg.Sweep.Enabled = false
			}
			return RunServe(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().IntVar(&flags.Port, "port", 8080, "Port to listen on (overrides config)")
	cmd.Flags().BoolVar(&flags.NoSweep, "no-sweep", false, "Disable the scheduled sweep")

	return cmd
}

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize storage
	store, err := NewStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	locker, closeLocker, err := NewLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	sweeper := sweep.NewSweeper(store, nil, locker, logger.With("component", "sweep"))

	if cfg.Sweep.Enabled {
		scheduler, err := sweep.NewScheduler(sweeper, cfg.Sweep.Schedule, 0, logger.With("component", "scheduler"))
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Create API config
	apiCfg := api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	}

	// Create and start server
	server := api.NewServer(apiCfg, api.Services{
		Purchases: purchase.NewService(store, logger),
		Profiles:  profile.NewService(store, logger),
		Sweeper:   sweeper,
	}, logger)

	// Handle graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
