// Package onq drives the "sync from OnQ" job on the EduSeek backend: it
// starts the remote job, polls its status, tracks the 2FA prompt and
// reconciles the final counts for the host UI.
package onq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Credentials are used for a single start request and never stored.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return &ValidationError{Field: "username"}
	}
	if c.Password == "" {
		return &ValidationError{Field: "password"}
	}
	return nil
}

func (c Credentials) String() string {
	return "Credentials{[redacted]}"
}

func (c Credentials) GoString() string {
	return c.String()
}

type JobHandle struct {
	JobID string
}

type Step string

const (
	StepIdle              Step = "idle"
	StepInitializing      Step = "initializing"
	StepLoggingIn         Step = "logging_in"
	StepAwaitingTwoFactor Step = "awaiting_2fa"
	StepLoginComplete     Step = "login_complete"
	StepScraping          Step = "scraping"
	StepProcessing        Step = "processing"
	StepIngesting         Step = "ingesting"
	StepCompleted         Step = "completed"
	StepError             Step = "error"
	StepUnknown           Step = "unknown"
)

// ParseStep maps a backend step tag, including the older aliases, to a Step.
func ParseStep(tag string) Step {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "idle":
		return StepIdle
	case "initializing", "starting":
		return StepInitializing
	case "logging_in", "login":
		return StepLoggingIn
	case "awaiting_2fa", "twofa", "2fa":
		return StepAwaitingTwoFactor
	case "login_complete":
		return StepLoginComplete
	case "scraping":
		return StepScraping
	case "processing":
		return StepProcessing
	case "ingesting":
		return StepIngesting
	case "completed":
		return StepCompleted
	case "error":
		return StepError
	default:
		return StepUnknown
	}
}

func (s Step) Label() string {
	switch s {
	case StepIdle:
		return "Waiting for job"
	case StepInitializing:
		return "Starting"
	case StepLoggingIn:
		return "Logging into OnQ"
	case StepAwaitingTwoFactor:
		return "Waiting for 2FA approval"
	case StepLoginComplete:
		return "Logged in"
	case StepScraping:
		return "Scraping course files"
	case StepProcessing:
		return "Processing files"
	case StepIngesting:
		return "Uploading files"
	case StepCompleted:
		return "Completed"
	case StepError:
		return "Failed"
	default:
		return "Working"
	}
}

// SyncStatus is one status snapshot returned by the backend.
type SyncStatus struct {
	IsRunning       bool
	CurrentStep     Step
	Progress        float64
	Message         string
	Error           *string
	Results         *SyncResult
	JobID           string
	TwoFactorNumber *string
}

type SyncResult struct {
	FilesFound int
	Uploaded   int
	Duplicates int
	Failed     int
	Missing    int
	CourseID   *string
	CourseName *string
}

type statusPayload struct {
	IsRunning   bool           `json:"is_running"`
	CurrentStep string         `json:"current_step"`
	Progress    float64        `json:"progress"`
	Message     string         `json:"message"`
	Error       *string        `json:"error"`
	Results     *resultPayload `json:"results"`
	JobID       flexString     `json:"job_id"`
	TwofaNumber flexString     `json:"twofa_number"`
}

type resultPayload struct {
	Files      []json.RawMessage `json:"files"`
	FilesFound *int              `json:"files_found"`
	Uploaded   int               `json:"uploaded"`
	Duplicates int               `json:"duplicates"`
	Failed     int               `json:"failed"`
	Missing    int               `json:"missing"`
	CourseID   flexString        `json:"course_id"`
	CourseName *string           `json:"course_name"`
}

func (s *SyncStatus) UnmarshalJSON(data []byte) error {
	var p statusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*s = SyncStatus{
		IsRunning:       p.IsRunning,
		CurrentStep:     ParseStep(p.CurrentStep),
		Progress:        p.Progress,
		Message:         p.Message,
		Error:           p.Error,
		JobID:           p.JobID.value(),
		TwoFactorNumber: p.TwofaNumber.ptr(),
	}

	if p.Results != nil {
		found := len(p.Results.Files)
		if p.Results.FilesFound != nil {
			found = *p.Results.FilesFound
		}

		s.Results = &SyncResult{
			FilesFound: found,
			Uploaded:   p.Results.Uploaded,
			Duplicates: p.Results.Duplicates,
			Failed:     p.Results.Failed,
			Missing:    p.Results.Missing,
			CourseID:   p.Results.CourseID.ptr(),
			CourseName: p.Results.CourseName,
		}
	}

	return nil
}

// flexString accepts a JSON string or number; the backend is not
// consistent about either job ids or 2FA numbers.
type flexString struct {
	set bool
	v   string
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexString{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString{set: true, v: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString{set: true, v: n.String()}
	return nil
}

func (f flexString) value() string {
	return f.v
}

func (f flexString) ptr() *string {
	if !f.set || f.v == "" {
		return nil
	}
	v := f.v
	return &v
}
