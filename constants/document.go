package constants

import "strings"

// Uploaded document kinds (documents.doc_type).
const (
	UploadedCV        = "CV"
	UploadedReference = "REFERENCE"
)

// FormatText is the only format produced by the generation pipeline.
const FormatText = "TEXT"

// UnpersistedPrefix marks a generated document whose file could not be written.
const UnpersistedPrefix = "unpersisted:"

// Legacy doc types that carry a built-in prompt when no template row exists.
const (
	DocTypeCoverLetter     = "COVER_LETTER"
	DocTypeCompanyBriefing = "COMPANY_BRIEFING"
)

// LanguageSource selects which user field drives the {language} placeholder.
type LanguageSource string

const (
	LanguageSourcePreferred     LanguageSource = "preferred_language"
	LanguageSourceMotherTongue  LanguageSource = "mother_tongue"
	LanguageSourceDocumentation LanguageSource = "documentation_language"
)

// ParseLanguageSource falls back to documentation_language for unknown or empty values.
func ParseLanguageSource(s string) LanguageSource {
	switch LanguageSource(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageSourcePreferred:
		return LanguageSourcePreferred
	case LanguageSourceMotherTongue:
		return LanguageSourceMotherTongue
	default:
		return LanguageSourceDocumentation
	}
}

// IsUnpersisted reports whether a storage path is the "not written" marker.
func IsUnpersisted(path string) bool {
	return path == "" || strings.HasPrefix(path, UnpersistedPrefix)
}
