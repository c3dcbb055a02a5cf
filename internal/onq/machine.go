package onq

import "math"

// State is the client's reading of the remote job. The variants are
// NotStarted, Running, Completed and Failed.
type State interface {
	state()
}

// NotStarted covers both "no poll yet" and a stale idle read taken
// before the backend scheduled the job.
type NotStarted struct{}

type Running struct {
	Step     Step
	Progress float64
	Message  string
	// TwoFactor is set while the backend waits for the user to approve
	// the sign-in on their phone.
	TwoFactor *TwoFactorPrompt
}

type TwoFactorPrompt struct {
	Number string
}

type Completed struct {
	Result  SyncResult
	Message string
}

type Failed struct {
	Err error
}

func (NotStarted) state() {}
func (Running) state()    {}
func (Completed) state()  {}
func (Failed) state()     {}

func Terminal(s State) bool {
	switch s.(type) {
	case Completed, Failed:
		return true
	default:
		return false
	}
}

// Apply folds one status snapshot into the previous state. Terminal states
// absorb every later snapshot.
func Apply(prev State, s SyncStatus) State {
	if Terminal(prev) {
		return prev
	}

	if s.Error != nil {
		return Failed{Err: &JobError{Message: *s.Error}}
	}

	if !s.IsRunning {
		switch {
		case s.CurrentStep == StepCompleted && s.Results != nil:
			return Completed{Result: *s.Results, Message: s.Message}
		case s.CurrentStep == StepError:
			return Failed{Err: &JobError{Message: s.Message}}
		default:
			return NotStarted{}
		}
	}

	r := Running{
		Step:     s.CurrentStep,
		Progress: clampProgress(s.Progress),
		Message:  s.Message,
	}
	if s.TwoFactorNumber != nil && *s.TwoFactorNumber != "" {
		r.TwoFactor = &TwoFactorPrompt{Number: *s.TwoFactorNumber}
	}

	return r
}

func clampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
