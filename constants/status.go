package constants

// TaskStatus is the canonical status for rows in generation_tasks and matching_score_tasks.
type TaskStatus string

// Stable values (store these exact strings in DB).
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Response-only statuses; never persisted.
const (
	StatusQueued            = "queued"
	StatusAlreadyCalculated = "already_calculated"
)

// IsTerminal reports whether no further mutation of the task is allowed.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

func (s TaskStatus) String() string { return string(s) }
