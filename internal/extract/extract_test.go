package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractRejectsTinyBuffers(t *testing.T) {
	_, err := Extract(context.Background(), []byte("%PDF-1.4"))
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if !strings.Contains(failure.Reason, "too small") {
		t.Errorf("unexpected reason %q", failure.Reason)
	}
}

func TestExtractRejectsMissingSignature(t *testing.T) {
	data := make([]byte, 200)
	copy(data, "not a pdf at all")
	_, err := Extract(context.Background(), data)
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if !strings.Contains(failure.Reason, "signature") {
		t.Errorf("unexpected reason %q", failure.Reason)
	}
}

func TestExtractCorruptBodyIsFailure(t *testing.T) {
	data := append([]byte("%PDF-1.7\n"), make([]byte, 200)...)
	_, err := Extract(context.Background(), data)
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure for corrupt body, got %v", err)
	}
}

func TestFallbackText(t *testing.T) {
	got := FallbackText("no text content found in PDF")
	want := "Unable to parse PDF content: no text content found in PDF"
	if got != want {
		t.Errorf("FallbackText = %q, want %q", got, want)
	}
}
