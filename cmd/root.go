package cmd

import (
	"fmt"
	"os"

	"eduseek/internal/config"
	"eduseek/internal/db"
	"eduseek/internal/logger"
	"eduseek/internal/onq"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "eduseek",
	Short: "Sync your OnQ course files into EduSeek",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		// The modal owns the terminal, so its logs go to a file.
		if cmd.Name() == "sync" && !syncNoTUI {
			logger.InitFile(debug, cfg.LogFile)
		} else {
			logger.Init(debug)
		}

		storeCmds := map[string]bool{
			"sync": true, "serve": true,
		}
		if storeCmds[cmd.Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func dashboardURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DashboardPort, path)
}

func syncOptions(c *config.Config) onq.Options {
	return onq.Options{
		PollInterval:   c.PollInterval,
		AutoCloseDelay: c.AutoCloseDelay,
		MaxDuration:    c.MaxDuration,
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
