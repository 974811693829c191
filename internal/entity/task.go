package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
)

// GenerationTask tracks one "generate documents" request.
type GenerationTask struct {
	ID            uuid.UUID            `json:"id"`
	ApplicationID uuid.UUID            `json:"application_id"`
	UserID        uuid.UUID            `json:"user_id"`
	Status        constants.TaskStatus `json:"status"`
	Progress      int                  `json:"progress"`
	TotalDocs     int                  `json:"total_docs"`
	CompletedDocs int                  `json:"completed_docs"`
	ErrorMessage  *string              `json:"error_message,omitempty"`
	DocTypes      StringList           `json:"doc_types"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// MatchingScoreTask tracks one CV-vs-job scoring request.
type MatchingScoreTask struct {
	ID            uuid.UUID            `json:"id"`
	ApplicationID uuid.UUID            `json:"application_id"`
	UserID        uuid.UUID            `json:"user_id"`
	Status        constants.TaskStatus `json:"status"`
	Recalculate   bool                 `json:"recalculate"`
	ErrorMessage  *string              `json:"error_message,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// MatchingScore is the single scoring result of an application.
type MatchingScore struct {
	ID              uuid.UUID  `json:"id"`
	ApplicationID   uuid.UUID  `json:"application_id"`
	OverallScore    int        `json:"overall_score"`
	Strengths       StringList `json:"strengths"`
	Gaps            StringList `json:"gaps"`
	Recommendations StringList `json:"recommendations"`
	Story           *string    `json:"story,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
