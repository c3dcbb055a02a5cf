package onq

import (
	"fmt"
	"strings"
)

// Reconciliation is what the host receives once a job completes.
type Reconciliation struct {
	Result  SyncResult
	Summary string
}

func Reconcile(c Completed) Reconciliation {
	return Reconciliation{
		Result:  c.Result,
		Summary: Summary(c.Result),
	}
}

// Summary renders the counts as one line, e.g.
// "Synced CISC 124: found 6 files, 5 uploaded, 1 duplicate, 0 failed".
func Summary(r SyncResult) string {
	head := "Sync complete"
	if r.CourseName != nil && strings.TrimSpace(*r.CourseName) != "" {
		head = "Synced " + strings.TrimSpace(*r.CourseName)
	}

	parts := []string{
		"found " + plural(r.FilesFound, "file"),
		fmt.Sprintf("%d uploaded", r.Uploaded),
		plural(r.Duplicates, "duplicate"),
		fmt.Sprintf("%d failed", r.Failed),
	}
	if r.Missing > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", r.Missing))
	}

	return head + ": " + strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
