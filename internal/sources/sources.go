// Package sources loads the candidate and job data documents are generated from.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/entity"
	"github.com/joseph-ayodele/jobapply/internal/repository"
)

// ErrNoCV means the user has not uploaded a CV with extractable text.
var ErrNoCV = common.NewAppError("NO_CV", "no CV found; upload a CV first", common.ErrInvalidInput)

const noTextContent = "No text content"

// Sources reads CVs, job offers, reference letters and language settings.
type Sources struct {
	users  repository.UserRepository
	docs   repository.DocumentRepository
	offers repository.JobOfferRepository
	logger *slog.Logger
}

func New(users repository.UserRepository, docs repository.DocumentRepository, offers repository.JobOfferRepository, logger *slog.Logger) *Sources {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sources{
		users:  users,
		docs:   docs,
		offers: offers,
		logger: logger,
	}
}

// CVText returns the text of the user's most recent CV.
func (s *Sources) CVText(ctx context.Context, userID uuid.UUID) (string, error) {
	cv, err := s.docs.LatestByType(ctx, userID, constants.UploadedCV)
	if repository.IsNotFound(err) {
		return "", ErrNoCV
	}
	if err != nil {
		return "", err
	}
	if cv.ContentText == nil || strings.TrimSpace(*cv.ContentText) == "" {
		s.logger.Warn("sources.cv.empty", "user_id", userID, "document_id", cv.ID)
		return "", ErrNoCV
	}
	return *cv.ContentText, nil
}

// ReferenceLetters returns every reference letter of the user formatted for a
// prompt, oldest first. It returns "" when the user has none.
func (s *Sources) ReferenceLetters(ctx context.Context, userID uuid.UUID) (string, error) {
	docs, err := s.docs.ListByType(ctx, userID, constants.UploadedReference)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(docs))
	for i, d := range docs {
		text := noTextContent
		if d.ContentText != nil && strings.TrimSpace(*d.ContentText) != "" {
			text = *d.ContentText
		}
		parts = append(parts, fmt.Sprintf("--- Reference Letter %d ---\n%s", i+1, text))
	}
	return strings.Join(parts, "\n\n"), nil
}

// LanguageFields returns the user's three language settings. Unset fields are empty.
func (s *Sources) LanguageFields(ctx context.Context, userID uuid.UUID) (entity.LanguageFields, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return entity.LanguageFields{}, err
	}
	return entity.LanguageFields{
		Preferred:     value(u.PreferredLanguage),
		MotherTongue:  value(u.MotherTongue),
		Documentation: value(u.DocumentationLanguage),
	}, nil
}

// JobDescription composes the job text for app. A saved job offer with the
// same URL contributes its description; otherwise only title and company are
// known. Application type and the candidate's profile context are appended.
func (s *Sources) JobDescription(ctx context.Context, app *entity.Application) (string, error) {
	var b strings.Builder

	var offer *entity.JobOffer
	if url := value(app.JobOfferURL); url != "" {
		o, err := s.offers.FindByURL(ctx, url)
		switch {
		case err == nil:
			offer = o
		case repository.IsNotFound(err):
		default:
			return "", err
		}
	}

	if offer != nil {
		fmt.Fprintf(&b, "Title: %s\nCompany: %s\nDescription: %s", offer.Title, offer.Company, value(offer.Description))
	} else {
		fmt.Fprintf(&b, "Title: %s\nCompany: %s", app.JobTitle, app.Company)
	}

	if oc := value(app.OpportunityContext); oc != "" {
		b.WriteString("\nOpportunity Context: ")
		b.WriteString(oc)
	}
	if app.IsSpontaneous {
		b.WriteString("\nThis is a spontaneous application without a specific posting.")
	}

	switch t, _ := constants.CanonicalizeApplicationType(app.ApplicationType); t {
	case constants.ApplicationInternship:
		b.WriteString("\n\n=== APPLICATION TYPE: INTERNSHIP ===")
	case constants.ApplicationApprenticeship:
		b.WriteString("\n\n=== APPLICATION TYPE: APPRENTICESHIP ===")
	}

	u, err := s.users.GetByID(ctx, app.UserID)
	if err != nil && !repository.IsNotFound(err) {
		return "", err
	}
	if u != nil {
		b.WriteString(profileContext(u))
	}
	return b.String(), nil
}

func profileContext(u *entity.User) string {
	var lines []string
	if v := value(u.EmploymentStatus); v != "" {
		lines = append(lines, "Employment Status: "+v)
	}
	if v := value(u.EducationType); v != "" {
		lines = append(lines, "Education Type: "+v)
	}
	if v := value(u.AdditionalProfileContext); v != "" {
		lines = append(lines, "Additional Context: "+v)
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\n=== CANDIDATE PROFILE CONTEXT ===\n" + strings.Join(lines, "\n")
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
