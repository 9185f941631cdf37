package parse

import (
	"regexp"
	"strings"
)

var (
	fenceRE       = regexp.MustCompile("```json|```")
	bareKeyRE     = regexp.MustCompile(`(^|[,{\[]\s*)(\w+)\s*:`)
	singleQuoteRE = regexp.MustCompile(`:\s*'([^']*)'`)
)

// repairJSON applies the lenient cleanup pass to raw model output: markdown
// fences stripped, bare object keys quoted, single-quoted values requoted,
// and missing outer braces patched in.
func repairJSON(raw string) string {
	s := strings.TrimSpace(fenceRE.ReplaceAllString(raw, ""))
	s = bareKeyRE.ReplaceAllString(s, `$1"$2":`)
	s = singleQuoteRE.ReplaceAllString(s, `: "$1"`)
	if !strings.HasPrefix(s, "{") {
		s = "{" + s
	}
	if !strings.HasSuffix(s, "}") {
		s = s + "}"
	}
	return s
}

var (
	nameFieldRE  = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
	majorFieldRE = regexp.MustCompile(`"major"\s*:\s*"([^"]+)"`)
	yearFieldRE  = regexp.MustCompile(`"graduationYear"\s*:\s*"([^"]+)"`)
	companiesRE  = regexp.MustCompile(`(?s)"companies"\s*:\s*\[(.*?)\]`)
	keywordsRE   = regexp.MustCompile(`(?s)"keywords"\s*:\s*\[(.*?)\]`)
	nonDigitRE   = regexp.MustCompile(`[^0-9]`)
)

// scrapeFields pulls individual fields out of malformed output with regular
// expressions after JSON decoding has already failed.
func scrapeFields(raw string) rawFields {
	var out rawFields
	if m := nameFieldRE.FindStringSubmatch(raw); m != nil {
		out.Name = m[1]
	}
	if m := majorFieldRE.FindStringSubmatch(raw); m != nil {
		out.Major = m[1]
	}
	if m := yearFieldRE.FindStringSubmatch(raw); m != nil {
		out.GraduationYear = nonDigitRE.ReplaceAllString(m[1], "")
	}
	if m := companiesRE.FindStringSubmatch(raw); m != nil {
		out.Companies = splitArrayItems(m[1])
	}
	if m := keywordsRE.FindStringSubmatch(raw); m != nil {
		out.Keywords = splitArrayItems(m[1])
	}
	return out
}

func splitArrayItems(body string) []string {
	var items []string
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		item = strings.TrimPrefix(item, `"`)
		item = strings.TrimSuffix(item, `"`)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
