package models

import (
	"time"

	"github.com/google/uuid"

	"caption-search-backend/internal/search"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
	JobStatusFailed     = "failed"
)

// SearchJob is one queued batch search and, once finished, its result.
type SearchJob struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	References   []string            `json:"references"`
	Keywords     []string            `json:"keywords"`
	Status       string              `json:"status"` // "pending" | "processing" | "completed" | "cancelled" | "failed"
	Progress     float64             `json:"progress"`
	Processed    int                 `json:"processed_references"`
	HitCount     int                 `json:"hit_count"`
	Skipped      []search.SkipRecord `json:"skipped"`
	ErrorMessage *string             `json:"error_message"`
	CreatedAt    time.Time           `json:"created_at"`
	StartedAt    *time.Time          `json:"started_at"`
	CompletedAt  *time.Time          `json:"completed_at"`
}

// Finished reports whether the worker is done with the job.
func (j *SearchJob) Finished() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusCancelled, JobStatusFailed:
		return true
	}
	return false
}

// QueuedSearch is the payload pushed onto the Redis queue.
type QueuedSearch struct {
	JobID  uuid.UUID `json:"job_id"`
	UserID uuid.UUID `json:"user_id"`
}

type CreateSearchRequest struct {
	References string `json:"references"`
	Keywords   string `json:"keywords"`
}

type CreateSearchResponse struct {
	JobID           uuid.UUID `json:"job_id"`
	Status          string    `json:"status"`
	TotalReferences int       `json:"total_references"`
	Keywords        []string  `json:"keywords"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ProgressEvent struct {
	JobID uuid.UUID `json:"job_id"`
	search.Progress
}

type SkippedEvent struct {
	JobID uuid.UUID `json:"job_id"`
	search.SkipRecord
}

type CompletedEvent struct {
	JobID       uuid.UUID `json:"job_id"`
	Status      string    `json:"status"`
	HitCount    int       `json:"hit_count"`
	SkipCount   int       `json:"skip_count"`
	Interrupted bool      `json:"interrupted"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
