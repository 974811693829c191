package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strconv"
	"strings"
)

var ErrNoJSONObject = errors.New("no json object in model output")

// ExtractJSONObject pulls the JSON object out of a model reply. Markdown
// fences are stripped and any prose around the outermost braces is dropped.
func ExtractJSONObject(text string) ([]byte, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start < 0 || end <= start {
			return nil, ErrNoJSONObject
		}
		s = s[start : end+1]
	}
	if !json.Valid([]byte(s)) {
		return nil, ErrNoJSONObject
	}
	return []byte(s), nil
}

// NormalizeMatchingJSON
// - Renames known synonyms (score -> overall_score, weaknesses -> gaps)
// - Coerces the score to an integer clamped to 0..100
// - Wraps single strings into lists and drops empty entries
// - Removes unknown keys
func NormalizeMatchingJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	changed := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			changed = append(changed, from+"->"+to)
		}
	}
	renamed("score", "overall_score")
	renamed("match_score", "overall_score")
	renamed("overallScore", "overall_score")
	renamed("weaknesses", "gaps")
	renamed("recommendation", "recommendations")
	renamed("narrative", "story")
	renamed("summary", "story")

	switch v := m["overall_score"].(type) {
	case float64:
		m["overall_score"] = clampScore(v)
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(v), "%")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			m["overall_score"] = clampScore(f)
			changed = append(changed, "overall_score(string)")
		}
	}

	for _, k := range []string{"strengths", "gaps", "recommendations"} {
		switch v := m[k].(type) {
		case nil:
			m[k] = []string{}
			changed = append(changed, k+"(missing)")
		case string:
			if s := strings.TrimSpace(v); s != "" {
				m[k] = []string{s}
			} else {
				m[k] = []string{}
			}
			changed = append(changed, k+"(string)")
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) != len(v) {
				changed = append(changed, k+"(items)")
			}
			m[k] = out
		}
	}

	if v, ok := m["story"]; ok {
		switch s := v.(type) {
		case string:
			m["story"] = strings.TrimSpace(s)
		case nil:
			delete(m, "story")
		}
	}

	allowed := map[string]struct{}{
		"overall_score": {}, "strengths": {}, "gaps": {}, "recommendations": {}, "story": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			changed = append(changed, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.matching.normalize", "changed", changed)
	}
	return out, changed, nil
}

func clampScore(f float64) int {
	n := int(math.Round(f))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
