package security

import (
	"fmt"
	"regexp"
	"strings"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/logger"
)

// threatPatterns catch script injection and SQL-shaped payloads. Matching
// input is rejected outright, never silently stripped.
var threatPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b[^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`), // onclick, onload, etc.
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)alert\(`),
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Sanitizer validates free-form user input before it reaches any store.
type Sanitizer struct {
	audit *AuditLog
}

func NewSanitizer(audit *AuditLog) *Sanitizer {
	return &Sanitizer{audit: audit}
}

// Sanitize rejects malicious input with domain.ErrSecurityViolation and
// escapes HTML entities in everything else.
func (s *Sanitizer) Sanitize(input string) (string, error) {
	if input == "" {
		return "", nil
	}

	for _, pattern := range threatPatterns {
		if pattern.MatchString(input) {
			preview := input
			if len(preview) > 15 {
				preview = preview[:15] + "..."
			}
			s.audit.Record(SeverityCritical, fmt.Sprintf("malicious input blocked: %s", preview))
			logger.Critical("malicious input blocked", "preview", preview)
			return "", domain.ErrSecurityViolation
		}
	}

	return htmlEscaper.Replace(input), nil
}

// SanitizeAll runs Sanitize over each value and returns the escaped results
// in order, failing on the first violation.
func (s *Sanitizer) SanitizeAll(inputs ...string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		clean, err := s.Sanitize(in)
		if err != nil {
			return nil, err
		}
		out = append(out, clean)
	}
	return out, nil
}
