package agent

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minNarrationRunes is the quality gate for model narration: anything
// shorter is discarded in favor of the deterministic template.
const minNarrationRunes = 50

// controlMarkerRe matches delimiter-bracketed control spans some backends
// leak into narration, e.g. <|redacted_tool_calls ...|>. Stripping is a
// best-effort boundary filter, not a parser.
var controlMarkerRe = regexp.MustCompile(`(?s)<\|.*?\|>`)

// StripControlMarkers removes leaked control-markup spans and trims the
// result.
func StripControlMarkers(s string) string {
	return strings.TrimSpace(controlMarkerRe.ReplaceAllString(s, ""))
}

// narrationUsable reports whether a sanitized model reply is trustworthy
// enough to show instead of the deterministic fallback: long enough and free
// of marker-like residue.
func narrationUsable(s string) bool {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < minNarrationRunes {
		return false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "tool_call") || strings.Contains(lower, "redacted") {
		return false
	}
	return true
}
