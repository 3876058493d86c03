package digest

import (
	"strings"
	"time"
)

// ExpandVars substitutes placeholders in configured text.
//
// Supported variables:
// - {.CurrentDate} => YYYY-MM-DD (UTC)
// - {.Feed}        => the feed name
func ExpandVars(s, feed string, now time.Time) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	return strings.NewReplacer(
		"{.CurrentDate}", now.UTC().Format("2006-01-02"),
		"{.Feed}", feed,
	).Replace(s)
}
