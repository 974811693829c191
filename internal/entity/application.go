package entity

import (
	"time"

	"github.com/google/uuid"
)

// Application is one job the user is applying for.
type Application struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                uuid.UUID  `json:"user_id"`
	JobTitle              string     `json:"job_title"`
	Company               string     `json:"company"`
	JobOfferURL           *string    `json:"job_offer_url,omitempty"`
	OpportunityContext    *string    `json:"opportunity_context,omitempty"`
	IsSpontaneous         bool       `json:"is_spontaneous"`
	ApplicationType       string     `json:"application_type"`
	DocumentationLanguage *string    `json:"documentation_language,omitempty"`
	Applied               bool       `json:"applied"`
	AppliedAt             *time.Time `json:"applied_at,omitempty"`
	Result                *string    `json:"result,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// JobOffer is a saved job posting, matched to applications by URL.
type JobOffer struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
