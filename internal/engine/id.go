package engine

import (
	"regexp"
	"strings"
	"time"
)

var nonSlug = regexp.MustCompile(`[^\w-]`)

// generateID derives a session ID from the date and an optional name:
// "2024-03-09-taco-night", or "2024-03-09-session" without a name.
func generateID(now time.Time, name string) string {
	date := now.Format("2006-01-02")
	slug := strings.ToLower(nonSlug.ReplaceAllString(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"), ""))
	if slug == "" {
		slug = "session"
	}
	return date + "-" + slug
}
