package dashboard

import (
	"context"
	"sync"
	"time"

	"eduseek/internal/files"
	"eduseek/internal/history"
	"eduseek/internal/logger"
	"eduseek/internal/onq"

	"go.uber.org/zap"
)

const maxNotifications = 50

type Notification struct {
	Message string    `json:"message"`
	Kind    onq.Kind  `json:"kind"`
	At      time.Time `json:"at"`
}

// Host connects one orchestrator to the dashboard: it queues
// notifications for the browser, reloads the file listing on success and
// records every attempt in the local store.
type Host struct {
	orch     *onq.Orchestrator
	lister   *files.Lister
	recorder *history.Recorder
	timeout  time.Duration

	mu    sync.Mutex
	notes []Notification
	wg    sync.WaitGroup
}

func NewHost(transport onq.Transport, lister *files.Lister, opts onq.Options, refreshTimeout time.Duration) *Host {
	h := &Host{
		lister:   lister,
		recorder: history.NewRecorder(),
		timeout:  refreshTimeout,
	}

	h.orch = onq.NewOrchestrator(transport, onq.Hooks{
		OnStatusChange: h.recorder.Terminal,
		Notify:         h.notify,
		Refresh:        h.refresh,
	}, opts)

	return h
}

func (h *Host) Start(ctx context.Context, creds onq.Credentials) error {
	return h.orch.Start(ctx, creds)
}

// Close abandons the current attempt. An attempt still starting or running
// is recorded as cancelled.
func (h *Host) Close() onq.View {
	v := h.orch.View()
	h.orch.Close()
	h.recorder.Cancelled(v)

	return h.orch.View()
}

func (h *Host) View() onq.View {
	return h.orch.View()
}

func (h *Host) SetOptions(opts onq.Options) {
	h.orch.SetOptions(opts)
}

// Drain returns and clears the queued notifications.
func (h *Host) Drain() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := h.notes
	h.notes = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

func (h *Host) Files() ([]files.File, time.Time) {
	return h.lister.Files()
}

// Shutdown closes the orchestrator and waits for pending file refreshes.
func (h *Host) Shutdown() {
	h.Close()
	h.wg.Wait()
}

func (h *Host) notify(message string, kind onq.Kind) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.notes = append(h.notes, Notification{Message: message, Kind: kind, At: time.Now()})
	if len(h.notes) > maxNotifications {
		h.notes = h.notes[len(h.notes)-maxNotifications:]
	}
}

// refresh runs off the hook goroutine so a slow backend cannot hold up Close.
func (h *Host) refresh() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		if err := h.lister.Refresh(ctx); err != nil {
			logger.Log.Warn("failed to refresh file list", zap.Error(err))
		}
	}()
}
