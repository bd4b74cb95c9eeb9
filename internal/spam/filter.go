// Package spam is a cheap first-line filter, not a classifier. A positive
// match drops the inbound message silently; false positives are an accepted
// trade-off.
package spam

import (
	"regexp"
	"strings"
)

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)gana\s+dinero`),
	regexp.MustCompile(`(?i)dinero\s+(facil|fácil|rapido|rápido)`),
	regexp.MustCompile(`(?i)inversi[oó]n\s+garantizada`),
	regexp.MustCompile(`(?i)criptomonedas?\s+gratis`),
	regexp.MustCompile(`(?i)multiplica\s+tu\s+dinero`),
	regexp.MustCompile(`(?i)pr[eé]stamos?\s+sin\s+buro`),
	regexp.MustCompile(`(?i)has\s+ganado\s+un\s+premio`),
	regexp.MustCompile(`(?i)click?\s+aqu[ií].*(bit\.ly|tinyurl|acortar)`),
	regexp.MustCompile(`(?i)(bit\.ly|tinyurl\.com)/\S+`),
	regexp.MustCompile(`(?i)trabaja\s+desde\s+casa.*\$`),
}

type Filter struct {
	patterns []*regexp.Regexp
}

func NewFilter() *Filter {
	return &Filter{patterns: patterns}
}

// Match returns the pattern that matched, or "" if the text is clean. The
// matched pattern goes into the audit log entry.
func (f *Filter) Match(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	for _, p := range f.patterns {
		if p.MatchString(trimmed) {
			return p.String()
		}
	}
	return ""
}

func (f *Filter) IsSpam(text string) bool {
	return f.Match(text) != ""
}
