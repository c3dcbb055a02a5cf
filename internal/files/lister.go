package files

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"eduseek/internal/logger"

	"go.uber.org/zap"
)

const listPath = "/api/files/"

type File struct {
	ID       int     `json:"id"`
	Filename string  `json:"filename"`
	Summary  *string `json:"summary"`
	// Deadline is the soonest due date found in the file, ISO 8601.
	Deadline *string `json:"deadline"`
}

// Lister keeps the last successful listing of the user's uploaded files.
type Lister struct {
	baseURL string
	client  *http.Client

	mu        sync.RWMutex
	files     []File
	fetchedAt time.Time
}

func NewLister(baseURL string, timeout time.Duration) *Lister {
	return &Lister{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Refresh reloads the listing. On failure the previous listing is kept.
func (l *Lister) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+listPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to list files: unexpected status %s", resp.Status)
	}

	var files []File
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return fmt.Errorf("failed to decode file list: %w", err)
	}

	l.mu.Lock()
	l.files = files
	l.fetchedAt = time.Now()
	l.mu.Unlock()

	logger.Log.Debug("file list refreshed", zap.Int("count", len(files)))
	return nil
}

// Files returns a copy of the cached listing and when it was fetched. The
// time is zero before the first successful Refresh.
func (l *Lister) Files() ([]File, time.Time) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]File, len(l.files))
	copy(out, l.files)
	return out, l.fetchedAt
}
