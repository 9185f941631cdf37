package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const maxSanitizedLen = 100

var nonAlnumRE = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeKeyPart lowercases the input and collapses every non-alphanumeric
// run to a single underscore, capped at 100 characters. Empty input yields "".
func SanitizeKeyPart(s string) string {
	out := nonAlnumRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
	out = strings.Trim(out, "_")
	if len(out) > maxSanitizedLen {
		out = out[:maxSanitizedLen]
	}
	return out
}

// ResumeStorageKey builds the blob key for an uploaded resume:
// resumes/<sanitized-name>_<unix-ms>.pdf, with a generic stem when the name
// sanitizes to nothing.
func ResumeStorageKey(name string, now time.Time) string {
	ts := now.UnixMilli()
	stem := SanitizeKeyPart(name)
	if stem == "" {
		return fmt.Sprintf("resumes/resume_%d.pdf", ts)
	}
	return fmt.Sprintf("resumes/%s_%d.pdf", stem, ts)
}
