package model

import (
	"time"

	"gorm.io/gorm"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "SUCCEEDED"
	OutcomeFailed    Outcome = "FAILED"
	OutcomeCancelled Outcome = "CANCELLED"
)

// SyncAttempt is one run of the OnQ sync as seen by this client. It never
// holds the credentials used to start it.
type SyncAttempt struct {
	gorm.Model
	AttemptID  string    `gorm:"uniqueIndex;not null" json:"attempt_id"`
	JobID      string    `json:"job_id"`
	Outcome    Outcome   `gorm:"not null" json:"outcome"`
	FilesFound int       `json:"files_found"`
	Uploaded   int       `json:"uploaded"`
	Duplicates int       `json:"duplicates"`
	Failed     int       `json:"failed"`
	Missing    int       `json:"missing"`
	CourseName string    `json:"course_name"`
	ErrMsg     string    `json:"error"`
	StartedAt  time.Time `gorm:"not null" json:"started_at"`
	FinishedAt time.Time `gorm:"not null" json:"finished_at"`
}

func (a SyncAttempt) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}
