package constants

import "strings"

type ApplicationType string

const (
	ApplicationFulltime       ApplicationType = "fulltime"
	ApplicationInternship     ApplicationType = "internship"
	ApplicationApprenticeship ApplicationType = "apprenticeship"
)

var allApplicationTypes = []ApplicationType{
	ApplicationFulltime,
	ApplicationInternship,
	ApplicationApprenticeship,
}

// CanonicalizeApplicationType maps free-form input to a known type. Unknown input yields fulltime.
func CanonicalizeApplicationType(input string) (ApplicationType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return ApplicationFulltime, false
	}

	synonyms := map[string]ApplicationType{
		"full-time":  ApplicationFulltime,
		"full time":  ApplicationFulltime,
		"job":        ApplicationFulltime,
		"intern":     ApplicationInternship,
		"praktikum":  ApplicationInternship,
		"apprentice": ApplicationApprenticeship,
		"lehre":      ApplicationApprenticeship,
		"lehrstelle": ApplicationApprenticeship,
		"ausbildung": ApplicationApprenticeship,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}
	for _, t := range allApplicationTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return ApplicationFulltime, false
}
