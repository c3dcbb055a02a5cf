package files

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLister_Refresh(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/files/", r.URL.Path)
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[
			{"id": 1, "filename": "week1.pdf", "summary": "Intro", "deadline": "2026-09-14T23:59:00"},
			{"id": 2, "filename": "a1.docx", "summary": null, "deadline": null}
		]`))
	}))
	defer srv.Close()

	l := NewLister(srv.URL, time.Second)

	list, at := l.Files()
	assert.Empty(t, list)
	assert.True(t, at.IsZero())

	require.NoError(t, l.Refresh(context.Background()))

	list, at = l.Files()
	require.Len(t, list, 2)
	assert.Equal(t, "week1.pdf", list[0].Filename)
	require.NotNil(t, list[0].Deadline)
	assert.Equal(t, "2026-09-14T23:59:00", *list[0].Deadline)
	assert.Nil(t, list[1].Summary)
	assert.False(t, at.IsZero())

	fail.Store(true)
	assert.Error(t, l.Refresh(context.Background()))

	kept, _ := l.Files()
	assert.Len(t, kept, 2)
}

func TestLister_FilesReturnsCopy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "filename": "a.pdf"}]`))
	}))
	defer srv.Close()

	l := NewLister(srv.URL+"/", time.Second)
	require.NoError(t, l.Refresh(context.Background()))

	list, _ := l.Files()
	list[0].Filename = "changed"

	again, _ := l.Files()
	assert.Equal(t, "a.pdf", again[0].Filename)
}
