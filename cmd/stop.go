package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"eduseek/internal/onq"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 5 * time.Second}

		if phase, err := dashboardPhase(client); err != nil {
			return fmt.Errorf("dashboard not running: %w", err)
		} else if phase == onq.PhaseStarting || phase == onq.PhaseRunning {
			fmt.Println("a sync is in progress; it will be cancelled")
		}

		resp, err := client.Post(dashboardURL("/stop"), "application/json", nil)
		if err != nil {
			return fmt.Errorf("failed to stop dashboard: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to stop dashboard: %s", resp.Status)
		}

		fmt.Println("eduseek dashboard stopping")
		return nil
	},
}

func dashboardPhase(client *http.Client) (onq.Phase, error) {
	resp, err := client.Get(dashboardURL("/sync/view"))
	if err != nil {
		return "", err
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	var view struct {
		Phase onq.Phase `json:"phase"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return "", fmt.Errorf("failed to decode view: %w", err)
	}

	return view.Phase, nil
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
