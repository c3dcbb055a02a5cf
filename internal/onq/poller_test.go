package onq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type applied struct {
	status *SyncStatus
	state  State
}

func collect(mu *sync.Mutex, out *[]applied) ApplyFunc {
	return func(status *SyncStatus, state State) bool {
		mu.Lock()
		defer mu.Unlock()
		*out = append(*out, applied{status: status, state: state})
		return true
	}
}

func TestPoller_RunsUntilTerminal(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := newFakeTransport(
		running(StepScraping, 10),
		running(StepIngesting, 80),
		completed(SyncResult{Uploaded: 4}),
	)

	var mu sync.Mutex
	var got []applied
	final := NewPoller(tr, tick, 0).Run(context.Background(), JobHandle{JobID: "j"}, collect(&mu, &got))

	assert.IsType(t, Completed{}, final)
	require.Len(t, got, 3)
	for _, a := range got {
		assert.NotNil(t, a.status)
	}
	assert.Equal(t, 3, tr.statusPolls())
}

func TestPoller_StopsWhenApplyDeclines(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := newFakeTransport(running(StepScraping, 10))
	calls := 0
	NewPoller(tr, tick, 0).Run(context.Background(), JobHandle{JobID: "j"}, func(*SyncStatus, State) bool {
		calls++
		return false
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, tr.statusPolls())
}

func TestPoller_TransportErrorIsTerminal(t *testing.T) {
	defer goleak.VerifyNone(t)

	cause := errors.New("dial tcp: connection refused")
	tr := newFakeTransport(pollResult{err: cause})

	var mu sync.Mutex
	var got []applied
	final := NewPoller(tr, tick, 0).Run(context.Background(), JobHandle{JobID: "j"}, collect(&mu, &got))

	f, ok := final.(Failed)
	require.True(t, ok)
	assert.EqualError(t, f.Err, "failed to check sync status")
	assert.ErrorIs(t, f.Err, cause)

	require.Len(t, got, 1)
	assert.Nil(t, got[0].status)
}

func TestPoller_KeepsTransportErrorOp(t *testing.T) {
	tr := newFakeTransport(pollResult{err: &TransportError{Op: OpPoll, Err: errors.New("eof")}})

	final := NewPoller(tr, tick, 0).Run(context.Background(), JobHandle{}, func(*SyncStatus, State) bool { return true })

	f, ok := final.(Failed)
	require.True(t, ok)
	var te *TransportError
	require.ErrorAs(t, f.Err, &te)
	assert.Equal(t, OpPoll, te.Op)
	assert.EqualError(t, te.Err, "eof")
}

func TestPoller_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := newFakeTransport(running(StepScraping, 10))

	var mu sync.Mutex
	var got []applied
	final := NewPoller(tr, tick, 25*time.Millisecond).Run(context.Background(), JobHandle{JobID: "j"}, collect(&mu, &got))

	f, ok := final.(Failed)
	require.True(t, ok)
	var te *TimeoutError
	require.ErrorAs(t, f.Err, &te)
	assert.Equal(t, 25*time.Millisecond, te.After)

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Nil(t, last.status)
	assert.Equal(t, final, last.state)
}

func TestPoller_CancelDiscardsLateResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := newFakeTransport(completed(SyncResult{Uploaded: 1}))
	tr.gate = make(chan struct{})
	tr.entered = make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan State)
	go func() {
		done <- NewPoller(tr, tick, 0).Run(ctx, JobHandle{JobID: "j"}, func(*SyncStatus, State) bool {
			calls++
			return true
		})
	}()

	<-tr.entered
	cancel()
	close(tr.gate)

	final := <-done
	assert.Equal(t, NotStarted{}, final)
	assert.Zero(t, calls)
}

func TestPoller_FirstPollWaitsOneInterval(t *testing.T) {
	tr := newFakeTransport(completed(SyncResult{}))
	interval := 40 * time.Millisecond

	started := time.Now()
	NewPoller(tr, interval, 0).Run(context.Background(), JobHandle{}, func(*SyncStatus, State) bool { return true })

	assert.GreaterOrEqual(t, time.Since(started), interval)
}
