package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"eduseek/internal/autostart"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Start the dashboard at login",
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}

		as := autostart.New()

		installed, err := as.IsInstalled()
		if err != nil {
			return err
		}

		if err := as.Install(execPath); err != nil {
			if errors.Is(err, autostart.ErrUnsupported) {
				return fmt.Errorf("%w; run `eduseek serve` manually", err)
			}
			return err
		}

		if installed {
			fmt.Printf("eduseek dashboard autostart updated to %s\n", execPath)
		} else {
			fmt.Printf("eduseek dashboard registered for autostart on port %d\n", cfg.DashboardPort)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
