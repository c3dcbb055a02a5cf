package onq

import (
	"context"
	"time"

	"eduseek/internal/logger"

	"go.uber.org/zap"
)

// ApplyFunc receives every state in poll order. status is nil for states
// produced locally (transport failure, timeout). Returning false stops the
// loop without another poll.
type ApplyFunc func(status *SyncStatus, state State) bool

type Poller struct {
	transport   Transport
	interval    time.Duration
	maxDuration time.Duration
}

func NewPoller(transport Transport, interval, maxDuration time.Duration) *Poller {
	return &Poller{
		transport:   transport,
		interval:    interval,
		maxDuration: maxDuration,
	}
}

// Run polls handle until a terminal state, a timeout or ctx cancellation.
// One request is in flight at a time; the next is scheduled only after the
// previous response has been applied.
func (p *Poller) Run(ctx context.Context, handle JobHandle, apply ApplyFunc) State {
	var deadline <-chan time.Time
	if p.maxDuration > 0 {
		t := time.NewTimer(p.maxDuration)
		defer t.Stop()
		deadline = t.C
	}

	wait := time.NewTimer(p.interval)
	defer wait.Stop()

	var state State = NotStarted{}
	for {
		select {
		case <-ctx.Done():
			return state
		case <-deadline:
			state = Failed{Err: &TimeoutError{After: p.maxDuration}}
			logger.Log.Warn("sync poll timed out",
				zap.String("job_id", handle.JobID),
				zap.Duration("after", p.maxDuration))
			apply(nil, state)
			return state
		case <-wait.C:
		}

		status, err := p.transport.GetStatus(ctx, handle)
		if ctx.Err() != nil {
			return state
		}

		if err != nil {
			logger.Log.Warn("sync poll failed",
				zap.String("job_id", handle.JobID),
				zap.NamedError("cause", unwrapCause(err)))

			if _, ok := err.(*TransportError); !ok {
				err = &TransportError{Op: OpPoll, Err: err}
			}
			state = Failed{Err: err}
			apply(nil, state)
			return state
		}

		state = Apply(state, status)
		logger.Log.Debug("sync poll",
			zap.String("job_id", handle.JobID),
			zap.String("step", string(status.CurrentStep)),
			zap.Float64("progress", status.Progress),
			zap.Bool("running", status.IsRunning))

		if !apply(&status, state) || Terminal(state) {
			return state
		}

		wait.Reset(p.interval)
	}
}

func unwrapCause(err error) error {
	if te, ok := err.(*TransportError); ok && te.Err != nil {
		return te.Err
	}
	return err
}
