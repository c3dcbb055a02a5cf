package onq

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Op string

const (
	OpStart Op = "start"
	OpPoll  Op = "poll"
)

const twoFactorHint = "Complete the approval on your device, then try again."

// ValidationError is returned by Start before any network call is made.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// RejectedError carries the backend's detail string for a non-2xx start.
type RejectedError struct {
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	return e.Detail
}

// TransportError hides the underlying cause behind a fixed message. The
// cause is kept for logs via Unwrap.
type TransportError struct {
	Op  Op
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == OpStart {
		return "failed to start sync"
	}
	return "failed to check sync status"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// JobError is a failure reported by the backend through the status error field.
type JobError struct {
	Message string
}

func (e *JobError) Error() string {
	if e.Message == "" {
		return "sync failed"
	}
	return e.Message
}

type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("sync did not finish within %s", e.After)
}

// Hint returns extra guidance for errors caused by an unfinished 2FA approval.
func Hint(err error) string {
	jobErr, ok := errors.AsType[*JobError](err)
	if !ok {
		return ""
	}

	msg := strings.ToLower(jobErr.Message)
	if strings.Contains(msg, "2fa") || strings.Contains(msg, "two-factor") {
		return twoFactorHint
	}

	return ""
}
