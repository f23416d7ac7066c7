package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a batch job
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// InvocationMode tells whether the caller waits for the batch to finish
type InvocationMode string

const (
	ModeAwait  InvocationMode = "await"
	ModeDetach InvocationMode = "detach"
)

// ValidateMode checks if an invocation mode is valid
func ValidateMode(mode InvocationMode) bool {
	return mode == ModeAwait || mode == ModeDetach
}

// Job is one submitted batch of references
type Job struct {
	ID           string         `json:"id"`
	References   []string       `json:"references"`
	Mode         InvocationMode `json:"mode"`
	Status       JobStatus      `json:"status"`
	Result       *BatchResult   `json:"result,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}

// NewJob creates a running job
func NewJob(references []string, mode InvocationMode) *Job {
	return &Job{
		ID:         uuid.New().String(),
		References: references,
		Mode:       mode,
		Status:     JobRunning,
		CreatedAt:  time.Now(),
	}
}

// MarkCompleted marks the job as completed with its result
func (j *Job) MarkCompleted(result *BatchResult) {
	j.Status = JobCompleted
	j.Result = result
	j.finish()
}

// MarkFailed marks the job as failed. A partial result may be attached.
func (j *Job) MarkFailed(result *BatchResult, err error) {
	j.Status = JobFailed
	j.Result = result
	j.ErrorMessage = err.Error()
	j.finish()
}

// MarkCancelled marks the job as cancelled
func (j *Job) MarkCancelled(result *BatchResult) {
	j.Status = JobCancelled
	j.Result = result
	j.finish()
}

// IsTerminal checks if the job has finished
func (j *Job) IsTerminal() bool {
	return j.Status != JobRunning
}

func (j *Job) finish() {
	now := time.Now()
	j.FinishedAt = &now
}
