package model

import (
	"time"
)

// TaskKind identifies which background job a task runs.
type TaskKind string

const (
	TaskYoutubeFetch = TaskKind("youtube_fetch")
	TaskBookTagging  = TaskKind("book_tagging")
)

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	TaskPending  = TaskStatus("pending")
	TaskComplete = TaskStatus("complete")
	TaskFailed   = TaskStatus("failed")
)

// Task is a persisted record of a detached background job.
type Task struct {
	ID        string     `json:"id"`
	Kind      TaskKind   `json:"kind"`
	EntryID   string     `json:"entry_id"`
	URL       string     `json:"url,omitempty"`
	Status    TaskStatus `json:"status"`
	Attempts  int        `json:"attempts"`
	Error     string     `json:"error,omitempty"`
	CreatedAt Timestamp  `json:"created_at"`
	UpdatedAt Timestamp  `json:"updated_at"`
}

// InFlight reports whether the task still holds the entry's in-flight marker.
func (t *Task) InFlight() bool {
	return t.Status == TaskPending
}

// Touch bumps the update timestamp.
func (t *Task) Touch(now time.Time) {
	t.UpdatedAt = Timestamp(now)
}
