package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"eduseek/internal/model"
	"eduseek/internal/repository"

	"github.com/spf13/cobra"
)

var historyN int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past sync attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fmt.Sprintf("%s?n=%d", dashboardURL("/history"), historyN)
		resp, err := http.Get(url)
		if err != nil {
			return fmt.Errorf("dashboard not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Attempts []model.SyncAttempt `json:"attempts"`
			Stats    repository.Stats    `json:"stats"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode history response: %w", err)
		}

		if len(result.Attempts) == 0 {
			fmt.Println("no sync attempts yet")
			return nil
		}

		for _, a := range result.Attempts {
			mark := "✓"
			switch a.Outcome {
			case model.OutcomeFailed:
				mark = "✗"
			case model.OutcomeCancelled:
				mark = "-"
			}

			detail := fmt.Sprintf("%d uploaded, %d duplicates, %d failed", a.Uploaded, a.Duplicates, a.Failed)
			if a.Outcome != model.OutcomeSucceeded {
				detail = a.ErrMsg
			}

			fmt.Printf("%s [%s] %-9s %-12s %s\n",
				mark,
				a.StartedAt.Format("2006-01-02 15:04:05"),
				a.Outcome,
				a.CourseName,
				detail,
			)
		}

		s := result.Stats
		fmt.Printf("\n%d attempts: %d succeeded, %d failed, %d cancelled, %d files uploaded\n",
			s.Total, s.Succeeded, s.Failed, s.Cancelled, s.Uploaded)

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of attempts to show")
	rootCmd.AddCommand(historyCmd)
}
