// Package parse turns raw resume text into structured candidate fields using
// an LLM, with lenient response handling and a never-fail fallback.
package parse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gtakpsi-software-dev/resume-app/internal/llm"
	"github.com/gtakpsi-software-dev/resume-app/internal/normalize"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/telemetry"
)

// Fields is the normalized extraction result. GraduationYear is empty when no
// valid year was found; lists are never nil.
type Fields struct {
	Name           string
	Major          string
	GraduationYear string
	Companies      []string
	Keywords       []string
}

// rawFields mirrors the JSON shape the model is asked to return.
type rawFields struct {
	Name           string   `json:"name"`
	Major          string   `json:"major"`
	GraduationYear string   `json:"graduationYear"`
	Companies      []string `json:"companies"`
	Keywords       []string `json:"keywords"`
}

// FallbackFields is the record used when extraction is irrecoverable.
func FallbackFields() Fields {
	return Fields{
		Name:           "",
		Major:          "Unspecified",
		GraduationYear: "Unspecified",
		Companies:      []string{},
		Keywords:       []string{},
	}
}

// Extractor drives the LLM extraction flow.
type Extractor struct {
	Client llm.Client
}

// NewExtractor constructs an Extractor over the given provider client.
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{Client: client}
}

// Extract returns structured fields for the given resume text. The returned
// Fields are always usable: when the provider fails past all retries the
// fallback record comes back together with a non-nil advisory error the
// caller can surface as a warning.
func (e *Extractor) Extract(ctx context.Context, text string) (Fields, error) {
	raw, err := generateWithRetry(ctx, e.Client, buildPrompt(text))
	if err != nil {
		telemetry.Error("llm extraction failed after retries", map[string]any{"error": err.Error()})
		return FallbackFields(), fmt.Errorf("ai extraction unavailable: %w", err)
	}
	return interpret(raw), nil
}

// interpret decodes the model output, falling back to regex scraping when the
// repaired payload still is not valid JSON.
func interpret(raw string) Fields {
	var parsed rawFields
	if err := json.Unmarshal([]byte(repairJSON(raw)), &parsed); err != nil {
		telemetry.Error("llm response is not valid JSON, scraping fields", map[string]any{"error": err.Error()})
		parsed = scrapeFields(raw)
	}
	return normalizeFields(parsed)
}

func normalizeFields(raw rawFields) Fields {
	year := ""
	if raw.GraduationYear != "" {
		year = normalize.ExtractLatestYear(raw.GraduationYear)
		if !normalize.ValidGraduationYear(year) {
			year = ""
		}
	}

	companies := make([]string, 0, len(raw.Companies))
	for _, company := range raw.Companies {
		if company == "" {
			continue
		}
		companies = append(companies, normalize.TitleCase(company))
	}

	keywords := make([]string, 0, len(raw.Keywords))
	for _, keyword := range raw.Keywords {
		if keyword != "" {
			keywords = append(keywords, keyword)
		}
	}

	return Fields{
		Name:           normalize.FormatName(raw.Name),
		Major:          normalize.CleanMajor(raw.Major),
		GraduationYear: year,
		Companies:      companies,
		Keywords:       keywords,
	}
}
