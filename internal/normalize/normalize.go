// Package normalize holds the pure string-cleanup helpers applied to parsed
// resume fields before they are persisted. Everything here is deterministic
// and free of I/O so the contracts can be pinned down in tests.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// brandSpellings maps lowercased tokens to their canonical brand spelling.
// Checked before any generic title-casing so "ibm" never becomes "Ibm".
var brandSpellings = map[string]string{
	"nvidia": "NVIDIA",
	"pwc":    "PwC",
	"ibm":    "IBM",
	"aws":    "AWS",
	"hp":     "HP",
	"ge":     "GE",
	"nasa":   "NASA",
	"gt":     "GT",
	"llc":    "LLC",
	"inc":    "Inc",
	"corp":   "Corp",
	"github": "GitHub",
	"vmware": "VMware",
}

// smallWords stay lowercase unless they lead the phrase.
var smallWords = map[string]struct{}{
	"of": {}, "the": {}, "and": {}, "a": {}, "an": {}, "in": {},
	"on": {}, "at": {}, "by": {}, "for": {}, "with": {}, "to": {},
}

// TitleCase formats a company or organization name: canonical brand spellings
// win, small connector words stay lowercase after the first token, everything
// else is capitalized-first/lowercased-rest.
func TitleCase(text string) string {
	if text == "" {
		return ""
	}
	words := strings.Split(text, " ")
	for i, word := range words {
		lower := strings.ToLower(word)
		if brand, ok := brandSpellings[lower]; ok {
			words[i] = brand
			continue
		}
		if _, ok := smallWords[lower]; ok && i > 0 {
			words[i] = lower
			continue
		}
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

// FormatName capitalizes the first letter of each space-separated token and
// lowercases the rest.
func FormatName(name string) string {
	if name == "" {
		return ""
	}
	words := strings.Split(name, " ")
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var majorPrefixes = []*regexp.Regexp{
	// "B.S. in Computer Science", "MBA of ...".
	regexp.MustCompile(`(?i)^(b\.?s\.?c?\.?|b\.?a\.?|m\.?s\.?|m\.?a\.?|m\.?b\.?a\.?|ph\.?d\.?|a\.?s\.?|a\.?a\.?)\s+(in|of)\s+`),
	// "Bachelor of Science in Computer Science" drops both the degree and the
	// school-of-science wrapper; "Bachelor of Engineering" keeps Engineering.
	regexp.MustCompile(`(?i)^(bachelor|master|doctor|doctorate|doctoral|associate)(['’]?s)?\s+(of|in)\s+((science|arts|applied science|engineering|philosophy|fine arts|business administration)\s+(in|of)\s+)?`),
	// "Bachelor's degree in Computer Science".
	regexp.MustCompile(`(?i)^(bachelor|master|doctor|doctorate|doctoral|associate)(['’]?s)?\s+degree\s+(in|of)?\s*`),
	regexp.MustCompile(`(?i)^(degree|education):\s*`),
}

var majorSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`\s*\([^)]*\)\s*$`),
	regexp.MustCompile(`(?i)\s*-\s*(minor|concentration|specialization|focus|honors|track|emphasis).*$`),
	regexp.MustCompile(`(?i)\s+with\s+(a\s+)?(minor|concentration|specialization|focus|honors|track|emphasis).*$`),
}

// CleanMajor strips degree classifications, trailing parentheticals, and
// minor/concentration clauses from a field of study.
func CleanMajor(major string) string {
	if major == "" {
		return ""
	}
	cleaned := strings.TrimSpace(major)
	for _, re := range majorPrefixes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	for _, re := range majorSuffixes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}

const (
	minYear = 1950
	maxYear = 2030
)

var (
	presentRE = regexp.MustCompile(`(?i)present|current`)
	yearRE    = regexp.MustCompile(`\b(19[5-9][0-9]|20[0-2][0-9]|2030)\b`)
	fourDigit = regexp.MustCompile(`^\d{4}$`)
)

// ExtractLatestYear returns the latest 4-digit year in [1950,2030] found in
// the text, with "present"/"current" treated as the current calendar year.
// Returns "" when no valid year is present.
func ExtractLatestYear(text string) string {
	if text == "" {
		return ""
	}
	currentYear := strconv.Itoa(time.Now().Year())
	text = presentRE.ReplaceAllString(text, currentYear)

	latest := 0
	for _, match := range yearRE.FindAllString(text, -1) {
		year, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if year > latest {
			latest = year
		}
	}
	if latest == 0 {
		return ""
	}
	return strconv.Itoa(latest)
}

// ValidGraduationYear reports whether year is a 4-digit string in [1950,2030].
func ValidGraduationYear(year string) bool {
	if !fourDigit.MatchString(year) {
		return false
	}
	parsed, err := strconv.Atoi(year)
	if err != nil {
		return false
	}
	return parsed >= minYear && parsed <= maxYear
}
