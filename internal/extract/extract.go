// Package extract pulls plain text out of uploaded PDF documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

const (
	// minSize rejects buffers too small to be a real document.
	minSize = 100
	// parseBudget bounds how long a single document may spend in the parser.
	parseBudget = 15 * time.Second
)

// Failure describes a document-level extraction problem: a corrupt, empty, or
// unreadable file rather than an infrastructure fault.
type Failure struct {
	Reason string
}

func (f *Failure) Error() string { return "extract: " + f.Reason }

// FallbackText is the stand-in extraction result used when a document cannot
// be read; downstream parsing receives it instead of nothing.
func FallbackText(reason string) string {
	return "Unable to parse PDF content: " + reason
}

type parseResult struct {
	text string
	err  error
}

// Extract returns the plain text of a PDF held in memory. Failures caused by
// the document itself come back as *Failure; the parse is raced against a
// fixed wall-clock budget and library panics are recovered.
func Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) < minSize {
		return "", &Failure{Reason: "file is too small to be a valid PDF"}
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return "", &Failure{Reason: "file is missing the PDF signature"}
	}

	results := make(chan parseResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- parseResult{err: &Failure{Reason: fmt.Sprintf("parser fault: %v", r)}}
			}
		}()
		text, err := parse(data)
		results <- parseResult{text: text, err: err}
	}()

	timer := time.NewTimer(parseBudget)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.err != nil {
			return "", res.err
		}
		if strings.TrimSpace(res.text) == "" {
			return "", &Failure{Reason: "no text content found in PDF"}
		}
		return res.text, nil
	case <-timer.C:
		return "", &Failure{Reason: "PDF parsing timed out"}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func parse(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Failure{Reason: fmt.Sprintf("unreadable PDF: %v", err)}
	}
	body, err := reader.GetPlainText()
	if err != nil {
		return "", &Failure{Reason: fmt.Sprintf("text extraction failed: %v", err)}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", &Failure{Reason: fmt.Sprintf("reading extracted text failed: %v", err)}
	}
	return buf.String(), nil
}
