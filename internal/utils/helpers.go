package utils

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/jobapply/internal/common"
)

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// OptionalYMD parses an optional YYYY-MM-DD value. Blank input yields nil.
func OptionalYMD(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := ParseYMD(s)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("%s invalid (YYYY-MM-DD): %v", field, err)
	}
	return &t, nil
}

// DateRange parses an optional from/to pair and rejects from after to.
func DateRange(from, to string) (*time.Time, *time.Time, error) {
	f, err := OptionalYMD("from_date", from)
	if err != nil {
		return nil, nil, err
	}
	t, err := OptionalYMD("to_date", to)
	if err != nil {
		return nil, nil, err
	}
	if f != nil && t != nil && f.After(*t) {
		return nil, nil, common.InvalidArgumentError("from_date must not be after to_date")
	}
	return f, t, nil
}
