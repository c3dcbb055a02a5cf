package tui

import (
	"context"
	"time"

	"eduseek/internal/logger"
	"eduseek/internal/onq"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type viewMsg struct {
	view onq.View
}

type noteMsg struct {
	message string
	kind    onq.Kind
}

type filesMsg struct {
	count int
}

type autoCloseMsg struct{}

// RefreshFunc reloads the file listing and reports how many files the
// library now holds.
type RefreshFunc func(ctx context.Context) (int, error)

// Hooks forwards orchestrator events into a running program through send,
// usually (*tea.Program).Send.
func Hooks(send func(tea.Msg), refresh RefreshFunc, timeout time.Duration) onq.Hooks {
	return onq.Hooks{
		OnStatusChange: func(v onq.View) {
			send(viewMsg{view: v})
		},
		Notify: func(message string, kind onq.Kind) {
			send(noteMsg{message: message, kind: kind})
		},
		Refresh: func() {
			if refresh == nil {
				return
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()

				n, err := refresh(ctx)
				if err != nil {
					logger.Log.Warn("failed to refresh file list", zap.Error(err))
					return
				}
				send(filesMsg{count: n})
			}()
		},
		OnAutoClose: func() {
			send(autoCloseMsg{})
		},
	}
}
