// Package webhook receives inbound reply events and feeds them into the
// engagement resumption gateway.
package webhook

import (
	"fmt"
	"regexp"
	"strings"
)

// subjectTagPattern matches the reply-correlation tag the outreach dispatcher
// embeds in email subjects, e.g. "[PF-3f2a...] Re: your permit". The prefix
// is configurable, so the pattern is built per instance.
type SubjectExtractor struct {
	pattern *regexp.Regexp
}

func NewSubjectExtractor(tagPrefix string) *SubjectExtractor {
	return &SubjectExtractor{
		pattern: regexp.MustCompile(`\[` + regexp.QuoteMeta(tagPrefix) + `-([A-Za-z0-9_-]+)\]`),
	}
}

// LeadID recovers the lead id from a reply subject. The tag survives "Re:"
// and "Fwd:" prefixes because the match is position-independent.
func (e *SubjectExtractor) LeadID(subject string) (string, bool) {
	match := e.pattern.FindStringSubmatch(subject)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ResolveLeadID prefers an explicit lead id and falls back to the subject tag.
func (e *SubjectExtractor) ResolveLeadID(explicit, subject string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if id, ok := e.LeadID(subject); ok {
		return id, nil
	}
	return "", fmt.Errorf("no lead id in payload and none recoverable from subject %q", subject)
}
