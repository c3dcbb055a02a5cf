package onq

import (
	"context"
	"errors"
	"sync"
)

type pollResult struct {
	status SyncStatus
	err    error
}

// fakeTransport replays scripted poll results; the last one repeats.
type fakeTransport struct {
	mu          sync.Mutex
	startCalls  int
	statusCalls int
	startErr    error
	handle      JobHandle
	polls       []pollResult
	// gate, when set, holds every GetStatus until it is closed. It
	// ignores ctx on purpose to model a request that cannot be aborted.
	gate    chan struct{}
	entered chan struct{}
	// startGate holds StartJob until it is closed or ctx ends.
	startGate    chan struct{}
	startEntered chan struct{}
}

func newFakeTransport(polls ...pollResult) *fakeTransport {
	return &fakeTransport{
		handle: JobHandle{JobID: "job-1"},
		polls:  polls,
	}
}

func (f *fakeTransport) StartJob(ctx context.Context, creds Credentials) (JobHandle, error) {
	f.mu.Lock()
	f.startCalls++
	gate, entered := f.startGate, f.startEntered
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return JobHandle{}, &TransportError{Op: OpStart, Err: err}
	}
	if f.startErr != nil {
		return JobHandle{}, f.startErr
	}
	return f.handle, nil
}

func (f *fakeTransport) GetStatus(ctx context.Context, handle JobHandle) (SyncStatus, error) {
	f.mu.Lock()
	idx := f.statusCalls
	f.statusCalls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.polls) == 0 {
		return SyncStatus{}, errors.New("no scripted polls")
	}
	if idx >= len(f.polls) {
		idx = len(f.polls) - 1
	}
	p := f.polls[idx]
	return p.status, p.err
}

func (f *fakeTransport) starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

func (f *fakeTransport) statusPolls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

type note struct {
	message string
	kind    Kind
}

type recorder struct {
	mu         sync.Mutex
	views      []View
	successes  []SyncResult
	notes      []note
	refreshes  int
	autoCloses int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnStatusChange: func(v View) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.views = append(r.views, v)
		},
		OnSuccess: func(res SyncResult) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.successes = append(r.successes, res)
		},
		Notify: func(msg string, kind Kind) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.notes = append(r.notes, note{message: msg, kind: kind})
		},
		Refresh: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.refreshes++
		},
		OnAutoClose: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.autoCloses++
		},
	}
}

func (r *recorder) snapshot() recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorder{
		views:      append([]View(nil), r.views...),
		successes:  append([]SyncResult(nil), r.successes...),
		notes:      append([]note(nil), r.notes...),
		refreshes:  r.refreshes,
		autoCloses: r.autoCloses,
	}
}

func (r *recorder) callbacks() int {
	s := r.snapshot()
	return len(s.views) + len(s.successes) + len(s.notes) + s.refreshes + s.autoCloses
}

func running(step Step, progress float64) pollResult {
	return pollResult{status: SyncStatus{IsRunning: true, CurrentStep: step, Progress: progress}}
}

func completed(res SyncResult) pollResult {
	return pollResult{status: SyncStatus{
		IsRunning:   false,
		CurrentStep: StepCompleted,
		Progress:    100,
		Results:     &res,
	}}
}

func strPtr(s string) *string {
	return &s
}
