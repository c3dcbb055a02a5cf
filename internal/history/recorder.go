// Package history records finished sync attempts in the local store.
package history

import (
	"errors"
	"sync"
	"time"

	"eduseek/internal/logger"
	"eduseek/internal/model"
	"eduseek/internal/onq"
	"eduseek/internal/repository"

	"go.uber.org/zap"
)

// Recorder saves each attempt at most once.
type Recorder struct {
	repo *repository.AttemptRepository

	mu       sync.Mutex
	recorded map[string]bool
}

func NewRecorder() *Recorder {
	return &Recorder{
		repo:     repository.NewAttemptRepository(),
		recorded: make(map[string]bool),
	}
}

// Terminal records v if it is a finished attempt.
func (r *Recorder) Terminal(v onq.View) {
	if v.Phase != onq.PhaseTerminal {
		return
	}

	outcome := model.OutcomeFailed
	if _, ok := v.State.(onq.Completed); ok {
		outcome = model.OutcomeSucceeded
	}
	r.save(v, outcome)
}

// Cancelled records v as cancelled if it was still in flight when the
// user closed it.
func (r *Recorder) Cancelled(v onq.View) {
	if v.Phase == onq.PhaseStarting || v.Phase == onq.PhaseRunning {
		r.save(v, model.OutcomeCancelled)
	}
}

func (r *Recorder) save(v onq.View, outcome model.Outcome) {
	if v.AttemptID == "" {
		return
	}

	r.mu.Lock()
	if r.recorded[v.AttemptID] {
		r.mu.Unlock()
		return
	}
	r.recorded[v.AttemptID] = true
	r.mu.Unlock()

	attempt := toAttempt(v, outcome)
	if err := r.repo.Save(attempt); err != nil {
		logger.Log.Error("failed to record sync attempt",
			zap.String("attempt_id", v.AttemptID),
			zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("attempt_id", v.AttemptID),
		zap.String("outcome", string(outcome)),
	}
	var te *onq.TransportError
	if errors.As(v.Err, &te) && te.Err != nil {
		fields = append(fields, zap.NamedError("cause", te.Err))
	}
	logger.Log.Info("sync attempt recorded", fields...)
}

func toAttempt(v onq.View, outcome model.Outcome) model.SyncAttempt {
	attempt := model.SyncAttempt{
		AttemptID:  v.AttemptID,
		JobID:      v.JobID,
		Outcome:    outcome,
		StartedAt:  v.StartedAt,
		FinishedAt: time.Now(),
	}

	if c, ok := v.State.(onq.Completed); ok {
		attempt.FilesFound = c.Result.FilesFound
		attempt.Uploaded = c.Result.Uploaded
		attempt.Duplicates = c.Result.Duplicates
		attempt.Failed = c.Result.Failed
		attempt.Missing = c.Result.Missing
		if c.Result.CourseName != nil {
			attempt.CourseName = *c.Result.CourseName
		}
	}
	if v.Err != nil {
		attempt.ErrMsg = v.Err.Error()
	}

	return attempt
}
