package callmetrics

import (
	"regexp"
	"strings"
)

// KeySeparator joins the segments of a metric name.
const KeySeparator = "_"

// symbolRun matches any run of '-', '.' and '+' characters.
var symbolRun = regexp.MustCompile(`[-.+]+`)

// SanitizeKey rewrites a metric name so that spaces and every run of '-', '.' and '+' become
// KeySeparator. It is the only place metric names are sanitized.
func SanitizeKey(raw string) string {
	return symbolRun.ReplaceAllString(strings.ReplaceAll(raw, " ", KeySeparator), KeySeparator)
}

// MergeKey joins the non-empty parts with KeySeparator and sanitizes the result. Empty parts
// are skipped, so an absent prefix never produces a doubled separator.
func MergeKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return SanitizeKey(strings.Join(kept, KeySeparator))
}
