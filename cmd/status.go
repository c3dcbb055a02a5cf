package cmd

import (
	"fmt"

	"eduseek/internal/onq"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the backend's current sync job",
	RunE: func(cmd *cobra.Command, args []string) error {
		transport := onq.NewHTTPTransport(cfg.BackendURL, cfg.RequestTimeout)

		status, err := transport.GetStatus(cmd.Context(), onq.JobHandle{})
		if err != nil {
			return fmt.Errorf("%w (backend %s)", err, cfg.BackendURL)
		}

		state := "idle"
		if status.IsRunning {
			state = "running"
		}

		fmt.Printf("%-10s %-24s %-9s %s\n", "STATE", "STEP", "PROGRESS", "MESSAGE")
		fmt.Printf("%-10s %-24s %8.0f%% %s\n", state, status.CurrentStep.Label(), status.Progress, status.Message)

		if status.TwoFactorNumber != nil {
			fmt.Printf("\n2FA number: %s\n", *status.TwoFactorNumber)
		}
		if status.Error != nil && *status.Error != "" {
			fmt.Printf("\nerror: %s\n", *status.Error)
		}
		if status.Results != nil {
			fmt.Printf("\n%s\n", onq.Summary(*status.Results))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
