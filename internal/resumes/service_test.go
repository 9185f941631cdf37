package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gtakpsi-software-dev/resume-app/internal/parse"
)

// fakeStore records blob operations in memory.
type fakeStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	deleted []string

	failPut     error
	failPresign error
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, int64, error) {
	if f.failPut != nil {
		return "", 0, f.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = data
	return "fake://" + key, int64(len(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("missing blob")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.failPresign != nil {
		return "", f.failPresign
	}
	return fmt.Sprintf("https://signed.example/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

// disconnectingStore refuses work on a dead context, like the real stores,
// and cancels the request context as soon as the blob lands.
type disconnectingStore struct {
	*fakeStore
	cancel context.CancelFunc
}

func (s *disconnectingStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	locator, n, err := s.fakeStore.Put(ctx, key, contentType, r)
	s.cancel()
	return locator, n, err
}

func (s *disconnectingStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fakeStore.Delete(ctx, key)
}

// fixedParser returns canned fields and an optional advisory error.
type fixedParser struct {
	fields parse.Fields
	err    error
}

func (p *fixedParser) Extract(ctx context.Context, text string) (parse.Fields, error) {
	return p.fields, p.err
}

func pdfBytes() []byte {
	data := make([]byte, 200)
	copy(data, "%PDF-1.7\n")
	return data
}

func newTestService(repo *MemoryRepo, store *fakeStore, parser FieldParser) *Service {
	return &Service{
		Repo:   repo,
		Store:  store,
		Parser: parser,
		ExtractText: func(ctx context.Context, data []byte) (string, error) {
			return "resume text", nil
		},
		PresignTTL: 15 * time.Minute,
		Now:        func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func TestIngestHappyPath(t *testing.T) {
	repo := NewMemoryRepo()
	store := newFakeStore()
	parser := &fixedParser{fields: parse.Fields{
		Name:           "John Smith",
		Major:          "Computer Science",
		GraduationYear: "2026",
		Companies:      []string{"NVIDIA", "Google"},
		Keywords:       []string{"Go", "SQL"},
	}}
	svc := newTestService(repo, store, parser)

	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "john.pdf", Data: pdfBytes()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.Name != "John Smith" || rec.Major != "Computer Science" || rec.GraduationYear != "2026" {
		t.Errorf("unexpected record fields: %+v", rec)
	}
	if rec.StorageKey != "resumes/john_smith_1700000000000.pdf" {
		t.Errorf("StorageKey = %q", rec.StorageKey)
	}
	if _, ok := store.blobs[rec.StorageKey]; !ok {
		t.Error("blob was not written")
	}
	if rec.ParsingWarning != "" {
		t.Errorf("unexpected warning %q", rec.ParsingWarning)
	}
	if len(repo.companies) != 2 || len(repo.keywords) != 2 {
		t.Errorf("entities = %d companies, %d keywords", len(repo.companies), len(repo.keywords))
	}
}

func TestIngestValidation(t *testing.T) {
	svc := newTestService(NewMemoryRepo(), newFakeStore(), &fixedParser{})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"oversized", append([]byte("%PDF"), make([]byte, maxUploadSize)...)},
		{"not a pdf", bytes.Repeat([]byte("x"), 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), UploadInput{FileName: "a.pdf", Data: tt.data})
			var clientErr *ClientInputError
			if !errors.As(err, &clientErr) {
				t.Fatalf("expected ClientInputError, got %v", err)
			}
		})
	}
}

func TestIngestFormOverridesWin(t *testing.T) {
	repo := NewMemoryRepo()
	store := newFakeStore()
	parser := &fixedParser{fields: parse.Fields{
		Name:      "Parsed Person",
		Major:     "Parsed Major",
		Companies: []string{"Parsed Co"},
	}}
	svc := newTestService(repo, store, parser)

	rec, err := svc.Ingest(context.Background(), UploadInput{
		FileName:       "x.pdf",
		Data:           pdfBytes(),
		Name:           "Form Person",
		Major:          "Form Major",
		GraduationYear: "2024-2028",
		Companies:      "acme corp, acme corp, ibm",
		Keywords:       "Go, Go, Rust",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.Name != "Form Person" || rec.Major != "Form Major" {
		t.Errorf("form overrides ignored: %+v", rec)
	}
	if rec.GraduationYear != "2028" {
		t.Errorf("GraduationYear = %q, want 2028", rec.GraduationYear)
	}
	wantCompanies := []string{"Acme Corp", "IBM"}
	if len(rec.Companies) != 2 || rec.Companies[0] != wantCompanies[0] || rec.Companies[1] != wantCompanies[1] {
		t.Errorf("Companies = %v, want %v", rec.Companies, wantCompanies)
	}
	if len(rec.Keywords) != 2 {
		t.Errorf("Keywords = %v, want deduped pair", rec.Keywords)
	}
}

func TestIngestDefaultsAndFilenameFallback(t *testing.T) {
	svc := newTestService(NewMemoryRepo(), newFakeStore(), &fixedParser{fields: parse.Fields{}})

	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "jane doe resume.pdf", Data: pdfBytes()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.Name != "Jane Doe Resume" {
		t.Errorf("Name = %q, want filename fallback", rec.Name)
	}
	if rec.Major != "Unspecified" || rec.GraduationYear != "Unspecified" {
		t.Errorf("defaults not applied: %+v", rec)
	}
	if rec.UploadedBy != "admin" {
		t.Errorf("UploadedBy = %q, want admin", rec.UploadedBy)
	}
}

func TestIngestCarriesParsingWarning(t *testing.T) {
	parser := &fixedParser{
		fields: parse.FallbackFields(),
		err:    errors.New("ai extraction unavailable: throttled"),
	}
	svc := newTestService(NewMemoryRepo(), newFakeStore(), parser)

	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.ParsingWarning == "" {
		t.Error("expected a parsing warning on the record")
	}
}

func TestIngestCompensatesBlobOnCreateFailure(t *testing.T) {
	repo := NewMemoryRepo()
	repo.FailCreate = errors.New("insert failed")
	store := newFakeStore()
	svc := newTestService(repo, store, &fixedParser{fields: parse.Fields{Name: "A B"}})

	_, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()})
	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pipeErr.Step != StepDatabaseCreate {
		t.Errorf("Step = %q, want %q", pipeErr.Step, StepDatabaseCreate)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected one compensating blob delete, got %v", store.deleted)
	}
	if len(store.blobs) != 0 {
		t.Error("blob left behind after failed create")
	}
}

func TestIngestCompensatesAfterClientDisconnect(t *testing.T) {
	repo := NewMemoryRepo()
	repo.FailCreate = errors.New("insert failed")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &disconnectingStore{fakeStore: newFakeStore(), cancel: cancel}
	svc := newTestService(repo, store.fakeStore, &fixedParser{fields: parse.Fields{Name: "A B"}})
	svc.Store = store

	_, err := svc.Ingest(ctx, UploadInput{FileName: "x.pdf", Data: pdfBytes()})
	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pipeErr.Step != StepDatabaseCreate {
		t.Errorf("Step = %q, want %q", pipeErr.Step, StepDatabaseCreate)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected a compensating blob delete despite the disconnect, got %v", store.deleted)
	}
	if len(store.blobs) != 0 {
		t.Error("blob orphaned after the client went away")
	}
}

func TestIngestCommitFailureMapsToCommitStep(t *testing.T) {
	repo := NewMemoryRepo()
	repo.FailCreate = fmt.Errorf("%w: connection reset", ErrTxCommit)
	svc := newTestService(repo, newFakeStore(), &fixedParser{fields: parse.Fields{Name: "A B"}})

	_, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()})
	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pipeErr.Step != StepTransactionCommit {
		t.Errorf("Step = %q, want %q", pipeErr.Step, StepTransactionCommit)
	}
}

func TestIngestAssociationFailureIsNotFatal(t *testing.T) {
	repo := NewMemoryRepo()
	repo.FailCompany = "Broken Co"
	parser := &fixedParser{fields: parse.Fields{
		Name:      "A B",
		Companies: []string{"Broken Co", "Fine Co"},
	}}
	svc := newTestService(repo, newFakeStore(), parser)

	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()})
	if err != nil {
		t.Fatalf("Ingest should tolerate association failure, got %v", err)
	}
	// The loop stops at the first failure, so no company resolved.
	if len(repo.links[rec.ID].companyIDs) != 0 {
		t.Errorf("companyIDs = %v, want none", repo.links[rec.ID].companyIDs)
	}
	// The stored list only reports companies that were actually linked.
	if len(rec.Companies) != 0 {
		t.Errorf("Companies = %v, want none reported", rec.Companies)
	}
}

func TestIngestTruncatesLongFields(t *testing.T) {
	longName := strings.Repeat("a", 300)
	svc := newTestService(NewMemoryRepo(), newFakeStore(), &fixedParser{})

	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes(), Name: longName})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(rec.Name) != maxFieldLen {
		t.Errorf("len(Name) = %d, want %d", len(rec.Name), maxFieldLen)
	}
	if !strings.HasSuffix(rec.Name, "...") {
		t.Errorf("truncated name missing ellipsis: %q", rec.Name[len(rec.Name)-5:])
	}
}

func TestIngestTruncationKeepsRuneBoundary(t *testing.T) {
	// 1 ASCII byte then 3-byte runes, so the 252-byte cut lands mid-rune.
	longName := "a" + strings.Repeat("界", 100)
	svc := newTestService(NewMemoryRepo(), newFakeStore(), &fixedParser{})

	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes(), Name: longName})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !utf8.ValidString(rec.Name) {
		t.Errorf("truncated name is not valid UTF-8: %q", rec.Name)
	}
	if len(rec.Name) > maxFieldLen {
		t.Errorf("len(Name) = %d, want <= %d", len(rec.Name), maxFieldLen)
	}
	if !strings.HasSuffix(rec.Name, "...") {
		t.Errorf("truncated name missing ellipsis: %q", rec.Name)
	}
}

func TestSearchPresignsResults(t *testing.T) {
	repo := NewMemoryRepo()
	store := newFakeStore()
	svc := newTestService(repo, store, &fixedParser{fields: parse.Fields{Name: "A B"}})

	if _, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	results, err := svc.Search(context.Background(), SearchFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if !strings.Contains(results[0].PdfURL, "ttl=900") {
		t.Errorf("PdfURL = %q, want 900s ttl", results[0].PdfURL)
	}
}

func TestSearchPresignFailureYieldsEmptyURL(t *testing.T) {
	repo := NewMemoryRepo()
	store := newFakeStore()
	svc := newTestService(repo, store, &fixedParser{fields: parse.Fields{Name: "A B"}})
	if _, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	store.failPresign = errors.New("presign broken")

	results, err := svc.Search(context.Background(), SearchFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].PdfURL != "" {
		t.Errorf("PdfURL = %q, want empty on presign failure", results[0].PdfURL)
	}
}

func TestSearchZeroEntityMatchShortCircuits(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo, newFakeStore(), &fixedParser{fields: parse.Fields{Name: "A B", Companies: []string{"NVIDIA"}}})
	if _, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	results, err := svc.Search(context.Background(), SearchFilter{Companies: []string{"No Such Co"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0 for unmatched company filter", len(results))
	}
}

func TestSoftDeleteRemovesBlobAndHidesRecord(t *testing.T) {
	repo := NewMemoryRepo()
	store := newFakeStore()
	svc := newTestService(repo, store, &fixedParser{fields: parse.Fields{Name: "A B"}})
	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := svc.SoftDelete(context.Background(), rec.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Errorf("deleted blobs = %v, want one", store.deleted)
	}
	if _, err := svc.Get(context.Background(), rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteAll(t *testing.T) {
	repo := NewMemoryRepo()
	store := newFakeStore()
	svc := newTestService(repo, store, &fixedParser{fields: parse.Fields{Name: "A B"}})

	if _, err := svc.DeleteAll(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteAll on empty = %v, want ErrNotFound", err)
	}

	for i := 0; i < 3; i++ {
		in := UploadInput{FileName: fmt.Sprintf("r%d.pdf", i), Data: pdfBytes(), Name: fmt.Sprintf("Person %d", i)}
		if _, err := svc.Ingest(context.Background(), in); err != nil {
			t.Fatalf("Ingest %d: %v", i, err)
		}
	}
	count, err := svc.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestUpdateReplacesListsViaFindOrCreate(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo, newFakeStore(), &fixedParser{fields: parse.Fields{Name: "A B"}})
	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	updated, err := svc.Update(context.Background(), rec.ID, UpdateInput{
		Name:      "New Name",
		Companies: "nvidia, pwc",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("Name = %q", updated.Name)
	}
	if len(updated.Companies) != 2 || updated.Companies[0] != "NVIDIA" || updated.Companies[1] != "PwC" {
		t.Errorf("Companies = %v", updated.Companies)
	}
	if _, ok := repo.companies["NVIDIA"]; !ok {
		t.Error("company NVIDIA was not created")
	}
}

func TestUpdateRejectsBadYear(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo, newFakeStore(), &fixedParser{fields: parse.Fields{Name: "A B"}})
	rec, err := svc.Ingest(context.Background(), UploadInput{FileName: "x.pdf", Data: pdfBytes()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	_, err = svc.Update(context.Background(), rec.ID, UpdateInput{GraduationYear: "not a year"})
	var clientErr *ClientInputError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected ClientInputError, got %v", err)
	}
}
