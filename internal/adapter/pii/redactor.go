package pii

import (
	"log/slog"
	"regexp"

	"github.com/V4T54L/docqa/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Pattern names accepted by NewRedactor. Card numbers are matched before
// phone numbers so a long digit run is not half-redacted as a phone.
const (
	PatternEmail = "email"
	PatternCard  = "card"
	PatternPhone = "phone"
)

var knownPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{PatternEmail, regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{PatternCard, regexp.MustCompile(`\b(?:\d[ \-]?){12,18}\d\b`)},
	{PatternPhone, regexp.MustCompile(`\+?\d[\d .\-()]{7,}\d`)},
}

// Redactor scrubs personal data out of free text before it leaves the
// request path.
type Redactor struct {
	patterns []*regexp.Regexp
	logger   *slog.Logger
}

// NewRedactor creates a Redactor for the named patterns. Unknown names are
// logged and ignored.
func NewRedactor(names []string, logger *slog.Logger) *Redactor {
	enabled := make(map[string]struct{}, len(names))
	for _, n := range names {
		enabled[n] = struct{}{}
	}

	r := &Redactor{logger: logger}
	for _, p := range knownPatterns {
		if _, ok := enabled[p.name]; ok {
			r.patterns = append(r.patterns, p.re)
			delete(enabled, p.name)
		}
	}
	for n := range enabled {
		logger.Warn("unknown PII pattern ignored", "pattern", n)
	}
	return r
}

// RedactText replaces every match with RedactedPlaceholder and reports
// whether anything was replaced.
func (r *Redactor) RedactText(text string) (string, bool) {
	redacted := false
	for _, re := range r.patterns {
		if re.MatchString(text) {
			text = re.ReplaceAllString(text, RedactedPlaceholder)
			redacted = true
		}
	}
	return text, redacted
}

// Redact scrubs the event's question in place.
func (r *Redactor) Redact(event *domain.AuditEvent) {
	if len(r.patterns) == 0 || event.Question == "" {
		return
	}
	text, redacted := r.RedactText(event.Question)
	if redacted {
		event.Question = text
		event.PIIRedacted = true
	}
}
