package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduseek/internal/config"
	"eduseek/internal/dashboard"
	"eduseek/internal/files"
	"eduseek/internal/logger"
	"eduseek/internal/onq"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local sync dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		lister := files.NewLister(cfg.BackendURL, cfg.RequestTimeout)
		refreshCtx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		if err := lister.Refresh(refreshCtx); err != nil {
			logger.Log.Warn("initial file list unavailable", zap.Error(err))
		}
		cancel()

		host := dashboard.NewHost(
			onq.NewHTTPTransport(cfg.BackendURL, cfg.RequestTimeout),
			lister,
			syncOptions(cfg),
			cfg.RequestTimeout,
		)

		if w, err := watchConfig(host); err != nil {
			logger.Log.Warn("config hot reload disabled", zap.Error(err))
		} else {
			defer w.Stop()
		}

		srv := dashboard.NewServer(host, cfg.DashboardPort)
		srv.Start()

		logger.Log.Info("eduseek dashboard ready",
			zap.Int("port", cfg.DashboardPort),
			zap.String("backend", cfg.BackendURL))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Log.Info("shutting down",
				zap.String("signal", sig.String()))
		case <-srv.StopCh():
			logger.Log.Info("stop requested via API")
		}

		ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return srv.Stop(ctx)
	},
}

func watchConfig(host *dashboard.Host) (*config.Watcher, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	w, err := config.NewWatcher(dir, 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	w.Start(func(c *config.Config, err error) {
		if err != nil {
			logger.Log.Warn("ignoring invalid config change", zap.Error(err))
			return
		}
		host.SetOptions(syncOptions(c))
		logger.Log.Info("config reloaded",
			zap.Duration("poll_interval", c.PollInterval),
			zap.Duration("auto_close_delay", c.AutoCloseDelay),
			zap.Duration("max_duration", c.MaxDuration))
	})

	return w, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
