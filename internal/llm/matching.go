package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// ParseMatchingResult turns a scoring reply into a MatchingResult. The reply is
// validated strictly first; on mismatch it is normalized and validated again.
func ParseMatchingResult(content string, logger *slog.Logger) (MatchingResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := ExtractJSONObject(content)
	if err != nil {
		logger.Error("llm.matching.no_json", "error", err, "content_len", len(content))
		return MatchingResult{}, err
	}

	if err := validateMatchingJSON(raw); err != nil {
		cleaned, changed, sErr := NormalizeMatchingJSON(raw, logger)
		if sErr != nil {
			logger.Error("llm.matching.sanitize_failed", "error", sErr)
			return MatchingResult{}, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := validateMatchingJSON(cleaned); vErr != nil {
			logger.Error("llm.matching.schema_validation_failed", "error", vErr, "content", string(raw))
			return MatchingResult{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		logger.Warn("llm.matching.lenient_sanitize_applied", "changed", changed)
		raw = cleaned
	}

	var out MatchingResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return MatchingResult{}, fmt.Errorf("unmarshal matching result: %w", err)
	}
	return out, nil
}
