package cmd

import (
	"fmt"

	"eduseek/internal/files"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the files in your EduSeek library",
	RunE: func(cmd *cobra.Command, args []string) error {
		lister := files.NewLister(cfg.BackendURL, cfg.RequestTimeout)
		if err := lister.Refresh(cmd.Context()); err != nil {
			return err
		}

		list, _ := lister.Files()
		if len(list) == 0 {
			fmt.Println("no files yet, run 'eduseek sync' to pull them from OnQ")
			return nil
		}

		fmt.Printf("%-6s %-40s %s\n", "ID", "FILENAME", "DEADLINE")
		for _, f := range list {
			deadline := "-"
			if f.Deadline != nil {
				deadline = *f.Deadline
			}
			fmt.Printf("%-6d %-40s %s\n", f.ID, f.Filename, deadline)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
}
