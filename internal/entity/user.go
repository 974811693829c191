package entity

import (
	"time"

	"github.com/google/uuid"
)

// User carries the credit balance and the language/profile fields read by prompt building.
type User struct {
	ID                       uuid.UUID `json:"id"`
	Email                    string    `json:"email"`
	Credits                  int       `json:"credits"`
	PreferredLanguage        *string   `json:"preferred_language,omitempty"`
	MotherTongue             *string   `json:"mother_tongue,omitempty"`
	DocumentationLanguage    *string   `json:"documentation_language,omitempty"`
	EmploymentStatus         *string   `json:"employment_status,omitempty"`
	EducationType            *string   `json:"education_type,omitempty"`
	AdditionalProfileContext *string   `json:"additional_profile_context,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// LanguageFields is the trio of language settings a user can configure.
type LanguageFields struct {
	Preferred     string `json:"preferred_language"`
	MotherTongue  string `json:"mother_tongue"`
	Documentation string `json:"documentation_language"`
}
