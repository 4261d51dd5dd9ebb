package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/outfit-wizard/internal/config"
	"github.com/vzahanych/outfit-wizard/internal/server"
	"github.com/vzahanych/outfit-wizard/internal/session"
	"github.com/vzahanych/outfit-wizard/internal/weather"
	"go.uber.org/zap"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the wizard HTTP server",
	Long:  `Start the HTTP API that drives the wizard sessions, with background stage loaders and observability.`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	ctx := cmd.Context()

	log.Info("Starting outfit wizard server",
		zap.String("config_path", configPath),
		zap.String("environment", cfg.Environment),
		zap.String("weather_source", cfg.Weather.Source),
		zap.String("session_store", cfg.Session.Store),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	store, closeStore := newSessionStore(ctx, cfg)
	defer closeStore()

	provider := weather.NewProvider(&cfg.Weather, log.Logger, tele)
	manager := session.NewManager(store, provider, session.OptionsFromConfig(cfg), log.Logger, tele)
	srv := server.NewServer(cfg, manager, provider, log.Logger, tele)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	manager.Start(workerCtx)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Error("Server error", zap.Error(err))
		manager.Stop()
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")

		if err := srv.Shutdown(); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
		}
		manager.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := tele.Shutdown(shutdownCtx); err != nil {
			log.Warn("Error during telemetry shutdown", zap.Error(err))
		}
		_ = log.Sync()

		log.Info("Server shutdown complete")
		return nil
	}
}

// newSessionStore picks the configured store and falls back to memory when
// Valkey is unreachable.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func()) {
	if cfg.Session.Store != "valkey" {
		return session.NewMemoryStore(), func() {}
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := session.NewValkeyClient(dialCtx, cfg.Session.Valkey.Addr)
	if err != nil {
		log.Warn("Valkey unavailable, using in-memory sessions",
			zap.String("addr", cfg.Session.Valkey.Addr),
			zap.Error(err))
		return session.NewMemoryStore(), func() {}
	}

	log.Info("Using valkey session store",
		zap.String("addr", cfg.Session.Valkey.Addr),
		zap.String("prefix", cfg.Session.Valkey.Prefix))
	return session.NewValkeyStore(client, cfg.Session.Valkey.Prefix), client.Close
}
