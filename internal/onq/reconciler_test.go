package onq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	course := "CISC 124"

	assert.Equal(t,
		"Synced CISC 124: found 6 files, 5 uploaded, 1 duplicate, 0 failed",
		Summary(SyncResult{FilesFound: 6, Uploaded: 5, Duplicates: 1, CourseName: &course}))

	assert.Equal(t,
		"Sync complete: found 1 file, 0 uploaded, 2 duplicates, 1 failed, 3 missing",
		Summary(SyncResult{FilesFound: 1, Duplicates: 2, Failed: 1, Missing: 3}))

	blank := "  "
	assert.Equal(t,
		"Sync complete: found 0 files, 0 uploaded, 0 duplicates, 0 failed",
		Summary(SyncResult{CourseName: &blank}))
}

func TestReconcile(t *testing.T) {
	res := SyncResult{FilesFound: 2, Uploaded: 2}
	rec := Reconcile(Completed{Result: res, Message: "ok"})

	assert.Equal(t, res, rec.Result)
	assert.Equal(t, Summary(res), rec.Summary)
}
