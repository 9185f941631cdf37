package parse

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gtakpsi-software-dev/resume-app/internal/llm"
)

// scriptedClient returns canned responses per call, in order.
type scriptedClient struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedClient) Generate(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var out string
	if i < len(s.responses) {
		out = s.responses[i]
	}
	return out, err
}

func TestExtractCleanJSON(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"name":"john smith","major":"Bachelor of Science in Computer Science","graduationYear":"2019 - 2026","companies":["nvidia","bank of america"],"keywords":["Go","SQL"]}`,
	}}
	fields, err := NewExtractor(client).Extract(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("unexpected advisory error: %v", err)
	}
	want := Fields{
		Name:           "John Smith",
		Major:          "Computer Science",
		GraduationYear: "2026",
		Companies:      []string{"NVIDIA", "Bank of America"},
		Keywords:       []string{"Go", "SQL"},
	}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %+v, want %+v", fields, want)
	}
}

func TestExtractFencedAndSloppyJSON(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"```json\n{name: 'jane doe', major: 'B.S. in Finance', graduationYear: '2025', companies: [], keywords: []}\n```",
	}}
	fields, err := NewExtractor(client).Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected advisory error: %v", err)
	}
	if fields.Name != "Jane Doe" {
		t.Errorf("Name = %q, want %q", fields.Name, "Jane Doe")
	}
	if fields.Major != "Finance" {
		t.Errorf("Major = %q, want %q", fields.Major, "Finance")
	}
	if fields.GraduationYear != "2025" {
		t.Errorf("GraduationYear = %q, want %q", fields.GraduationYear, "2025")
	}
}

func TestExtractRegexFallback(t *testing.T) {
	// Truncated output that no repair pass can turn into valid JSON.
	client := &scriptedClient{responses: []string{
		`here you go: "name": "alice wu", "major": "Computer Engineering", "graduationYear": "2027", "companies": ["google", "solar racing team"], "keywords": ["C++", "Verilog"], and that`,
	}}
	fields, err := NewExtractor(client).Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected advisory error: %v", err)
	}
	if fields.Name != "Alice Wu" {
		t.Errorf("Name = %q", fields.Name)
	}
	if got, want := fields.Companies, []string{"Google", "Solar Racing Team"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Companies = %v, want %v", got, want)
	}
	if got, want := fields.Keywords, []string{"C++", "Verilog"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
}

func TestExtractInvalidYearDropped(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"name":"bob","major":"Math","graduationYear":"20456","companies":[],"keywords":[]}`,
	}}
	fields, err := NewExtractor(client).Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected advisory error: %v", err)
	}
	if fields.GraduationYear != "" {
		t.Errorf("GraduationYear = %q, want empty", fields.GraduationYear)
	}
}

func TestExtractFallbackAfterHardFailure(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("boom")}}
	fields, err := NewExtractor(client).Extract(context.Background(), "text")
	if err == nil {
		t.Fatal("expected advisory error")
	}
	want := FallbackFields()
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %+v, want fallback %+v", fields, want)
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1 (non-throttle errors do not retry)", client.calls)
	}
}

// compressBackoff shrinks the retry schedule for the duration of a test.
func compressBackoff(t *testing.T) {
	t.Helper()
	savedInitial, savedMax := initialDelay, maxDelay
	initialDelay, maxDelay = time.Millisecond, 5*time.Millisecond
	t.Cleanup(func() { initialDelay, maxDelay = savedInitial, savedMax })
}

func TestGenerateWithRetryRetriesThrottled(t *testing.T) {
	compressBackoff(t)
	throttle := &llm.Throttled{Code: 429, Err: errors.New("rate limited")}
	client := &scriptedClient{
		errs:      []error{throttle, throttle, nil},
		responses: []string{"", "", "ok"},
	}
	out, err := generateWithRetry(context.Background(), client, "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q, want %q", out, "ok")
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestGenerateWithRetryGivesUp(t *testing.T) {
	compressBackoff(t)
	throttle := &llm.Throttled{Code: 503, Err: errors.New("overloaded")}
	client := &scriptedClient{errs: []error{throttle, throttle, throttle, throttle, throttle}}
	_, err := generateWithRetry(context.Background(), client, "p")
	var got *llm.Throttled
	if !errors.As(err, &got) {
		t.Fatalf("expected throttled error, got %v", err)
	}
	if client.calls != maxRetries+1 {
		t.Errorf("calls = %d, want %d", client.calls, maxRetries+1)
	}
}

func TestBuildPromptTruncates(t *testing.T) {
	long := strings.Repeat("a", maxPromptChars+500)
	prompt := buildPrompt(long)
	if strings.Count(prompt, "a") > maxPromptChars {
		t.Errorf("prompt carries more than %d input chars", maxPromptChars)
	}
	if !strings.Contains(prompt, "RAW RESUME TEXT:") {
		t.Error("prompt missing input section header")
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fences", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare keys", `{name: "x"}`, `{"name": "x"}`},
		{"single quotes", `{"name": 'x'}`, `{"name": "x"}`},
		{"missing braces", `"name": "x"`, `{"name": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repairJSON(tt.in); got != tt.want {
				t.Errorf("repairJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
