package agent

import (
	"strings"
	"unicode"
)

const (
	maxReplyLength = 4000
	maxPermitField = 500
	userDataBegin  = "<<<BEGIN_USER_DATA>>>"
	userDataEnd    = "<<<END_USER_DATA>>>"
)

// sanitizeUserInput removes control characters and truncates to max length
func sanitizeUserInput(s string, maxLen int) string {
	var sb strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}
	out := sb.String()
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return strings.TrimSpace(out)
}

// wrapUserData delimits untrusted text so the prompt can tell the model to
// treat it as data, never as instructions.
func wrapUserData(s string) string {
	return userDataBegin + "\n" + s + "\n" + userDataEnd
}

// extractJSONObject pulls the first JSON object out of a model reply,
// tolerating markdown code fences and prose around the payload.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
