package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is a user upload (CV or reference letter) with its extracted text.
type Document struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Filename    string    `json:"filename"`
	DocType     string    `json:"doc_type"`
	ContentText *string   `json:"content_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GeneratedDocument is one successfully produced artifact of a generation task.
type GeneratedDocument struct {
	ID               uuid.UUID  `json:"id"`
	ApplicationID    uuid.UUID  `json:"application_id"`
	GenerationTaskID *uuid.UUID `json:"generation_task_id,omitempty"`
	DocType          string     `json:"doc_type"`
	Format           string     `json:"format"`
	StoragePath      string     `json:"storage_path"`
	Content          string     `json:"content"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DocumentTemplate is an admin-configured prompt for one doc type.
type DocumentTemplate struct {
	ID             uuid.UUID `json:"id"`
	DocType        string    `json:"doc_type"`
	DisplayName    string    `json:"display_name"`
	CreditCost     int       `json:"credit_cost"`
	LanguageSource string    `json:"language_source"`
	LLMProvider    string    `json:"llm_provider"`
	LLMModel       string    `json:"llm_model"`
	PromptTemplate string    `json:"prompt_template"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StringList is a []string persisted as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("entity: cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("entity: decode StringList: %w", err)
	}
	*l = out
	return nil
}
