package content

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// PlainText strips every tag from visitor input and collapses surrounding
// whitespace. Entities produced by the policy are decoded again so the
// template layer escapes exactly once.
func PlainText(s string) string {
	cleaned := strictPolicy.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// Truncate shortens s to max runes.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}
