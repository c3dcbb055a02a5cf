package onq

import (
	"context"
	"sync"
	"time"

	"eduseek/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Phase string

const (
	PhaseNoJob    Phase = "no_job"
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseTerminal Phase = "terminal"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Hooks are the host callbacks. Any of them may be nil. They run on the
// job goroutine, one at a time, and may call Start or Close.
type Hooks struct {
	OnStatusChange func(View)
	OnSuccess      func(SyncResult)
	Notify         func(message string, kind Kind)
	Refresh        func()
	OnAutoClose    func()
}

// View is a copy of the orchestrator state for rendering.
type View struct {
	Phase     Phase
	AttemptID string
	JobID     string
	StartedAt time.Time
	Status    *SyncStatus
	State     State
	Err       error
	Hint      string
}

type Options struct {
	PollInterval time.Duration
	// AutoCloseDelay <= 0 disables auto-close after success.
	AutoCloseDelay time.Duration
	// MaxDuration <= 0 polls until the job ends.
	MaxDuration time.Duration
}

// Orchestrator runs at most one sync attempt at a time.
type Orchestrator struct {
	transport Transport
	hooks     Hooks

	mu          sync.Mutex
	opts        Options
	view        View
	gen         uint64
	cancel      context.CancelFunc
	done        chan struct{}
	autoClose   *time.Timer
	dispatching bool

	// dispatchMu serialises hook calls; Close waits on it so no hook
	// starts after Close returns.
	dispatchMu sync.Mutex
}

func NewOrchestrator(transport Transport, hooks Hooks, opts Options) *Orchestrator {
	return &Orchestrator{
		transport: transport,
		hooks:     hooks,
		opts:      opts,
		view:      View{Phase: PhaseNoJob, State: NotStarted{}},
	}
}

// SetOptions applies to the next attempt.
func (o *Orchestrator) SetOptions(opts Options) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts = opts
}

func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.copyView()
}

// Start launches a sync job. It is a no-op while an attempt is starting or
// running; a finished attempt is reset first.
func (o *Orchestrator) Start(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.view.Phase == PhaseStarting || o.view.Phase == PhaseRunning {
		o.mu.Unlock()
		logger.Log.Debug("sync already in progress, start ignored")
		return nil
	}

	o.resetLocked()
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.cancel = cancel
	o.done = make(chan struct{})
	o.view = View{
		Phase:     PhaseStarting,
		AttemptID: uuid.NewString(),
		StartedAt: time.Now(),
		State:     NotStarted{},
	}

	gen, done, opts, view := o.gen, o.done, o.opts, o.copyView()
	o.mu.Unlock()

	go o.run(jobCtx, gen, done, opts, creds, view)
	return nil
}

// Close cancels the attempt and any pending auto-close and returns to
// PhaseNoJob. It is idempotent and safe to call from inside a hook.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.resetLocked()
	wait := !o.dispatching
	o.mu.Unlock()

	if wait {
		o.dispatchMu.Lock()
		o.dispatchMu.Unlock()
	}
}

func (o *Orchestrator) Reset() {
	o.Close()
}

// Wait blocks until the current attempt's job goroutine exits or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) View {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}

	return o.View()
}

func (o *Orchestrator) resetLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if o.autoClose != nil {
		o.autoClose.Stop()
		o.autoClose = nil
	}

	o.gen++
	o.view = View{Phase: PhaseNoJob, State: NotStarted{}}
}

func (o *Orchestrator) run(ctx context.Context, gen uint64, done chan struct{}, opts Options, creds Credentials, view View) {
	defer close(done)

	if !o.emit(gen, func() { o.hooks.statusChange(view) }) {
		return
	}

	handle, err := o.transport.StartJob(ctx, creds)
	creds = Credentials{}
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		logger.Log.Warn("sync start failed",
			zap.String("attempt_id", view.AttemptID),
			zap.NamedError("cause", unwrapCause(err)))
		o.applyState(gen, opts, nil, Failed{Err: err})
		return
	}

	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return
	}
	o.view.Phase = PhaseRunning
	o.view.JobID = handle.JobID
	view = o.copyView()
	o.mu.Unlock()

	logger.Log.Info("sync job started",
		zap.String("attempt_id", view.AttemptID),
		zap.String("job_id", handle.JobID))

	if !o.emit(gen, func() { o.hooks.statusChange(view) }) {
		return
	}

	poller := NewPoller(o.transport, opts.PollInterval, opts.MaxDuration)
	final := poller.Run(ctx, handle, func(status *SyncStatus, state State) bool {
		return o.applyState(gen, opts, status, state)
	})

	logger.Log.Info("sync polling stopped",
		zap.String("job_id", handle.JobID),
		zap.Bool("terminal", Terminal(final)))
}

// applyState records a new state for attempt gen and notifies the host.
// It returns false once the attempt is no longer current.
func (o *Orchestrator) applyState(gen uint64, opts Options, status *SyncStatus, state State) bool {
	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return false
	}

	if status != nil {
		s := *status
		o.view.Status = &s
	}
	o.view.State = state

	switch s := state.(type) {
	case Completed:
		o.view.Phase = PhaseTerminal
	case Failed:
		o.view.Phase = PhaseTerminal
		o.view.Err = s.Err
		o.view.Hint = Hint(s.Err)
	}
	view := o.copyView()
	o.mu.Unlock()

	if !o.emit(gen, func() { o.hooks.statusChange(view) }) {
		return false
	}

	switch s := state.(type) {
	case Completed:
		o.reconcile(gen, opts, s)
	case Failed:
		o.emit(gen, func() { o.hooks.notify(s.Err.Error(), KindError) })
	}

	return o.current(gen)
}

// reconcile uses the options the attempt started with, not the live ones.
func (o *Orchestrator) reconcile(gen uint64, opts Options, c Completed) {
	rec := Reconcile(c)

	logger.Log.Info("sync completed",
		zap.Int("files_found", rec.Result.FilesFound),
		zap.Int("uploaded", rec.Result.Uploaded),
		zap.Int("duplicates", rec.Result.Duplicates),
		zap.Int("failed", rec.Result.Failed))

	if !o.emit(gen, func() { o.hooks.notify(rec.Summary, KindSuccess) }) {
		return
	}
	if !o.emit(gen, func() { o.hooks.success(rec.Result) }) {
		return
	}
	if !o.emit(gen, func() { o.hooks.refresh() }) {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen || opts.AutoCloseDelay <= 0 {
		return
	}
	o.autoClose = time.AfterFunc(opts.AutoCloseDelay, func() {
		o.fireAutoClose(gen)
	})
}

func (o *Orchestrator) fireAutoClose(gen uint64) {
	if !o.emit(gen, func() { o.hooks.autoClose() }) {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen == gen {
		o.autoClose = nil
		o.resetLocked()
	}
}

// emit runs fn if attempt gen is still current.
func (o *Orchestrator) emit(gen uint64, fn func()) bool {
	o.dispatchMu.Lock()
	defer o.dispatchMu.Unlock()

	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return false
	}
	o.dispatching = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.dispatching = false
		o.mu.Unlock()
	}()

	fn()
	return true
}

func (o *Orchestrator) current(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen == gen
}

func (o *Orchestrator) copyView() View {
	v := o.view
	if v.Status != nil {
		s := *v.Status
		v.Status = &s
	}
	return v
}

func (h Hooks) statusChange(v View) {
	if h.OnStatusChange != nil {
		h.OnStatusChange(v)
	}
}

func (h Hooks) success(r SyncResult) {
	if h.OnSuccess != nil {
		h.OnSuccess(r)
	}
}

func (h Hooks) notify(msg string, kind Kind) {
	if h.Notify != nil {
		h.Notify(msg, kind)
	}
}

func (h Hooks) refresh() {
	if h.Refresh != nil {
		h.Refresh()
	}
}

func (h Hooks) autoClose() {
	if h.OnAutoClose != nil {
		h.OnAutoClose()
	}
}
