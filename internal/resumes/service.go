package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gtakpsi-software-dev/resume-app/internal/extract"
	"github.com/gtakpsi-software-dev/resume-app/internal/normalize"
	"github.com/gtakpsi-software-dev/resume-app/internal/parse"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/metrics"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/object"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/telemetry"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/util"
)

const (
	// maxUploadSize caps accepted resume files.
	maxUploadSize = 10 << 20
	// maxFieldLen caps persisted text fields; longer values are truncated
	// with a trailing ellipsis.
	maxFieldLen = 255
	// maxListItems caps company and keyword lists per resume.
	maxListItems = 100
	// defaultPresignTTL bounds download links returned by search.
	defaultPresignTTL = 15 * time.Minute

	unspecified = "Unspecified"
)

// FieldParser extracts structured candidate fields from resume text. A
// non-nil error is advisory: the returned fields are still usable and the
// error text is surfaced as a parsing warning.
type FieldParser interface {
	Extract(ctx context.Context, text string) (parse.Fields, error)
}

// Service implements the resume operations over a Repo and a blob store.
type Service struct {
	Repo        Repo
	Store       object.BlobStore
	Parser      FieldParser
	ExtractText func(ctx context.Context, data []byte) (string, error)
	PresignTTL  time.Duration
	Now         func() time.Time
}

// NewService wires a Service with the production extractors and defaults.
func NewService(repo Repo, store object.BlobStore, parser FieldParser) *Service {
	return &Service{
		Repo:        repo,
		Store:       store,
		Parser:      parser,
		ExtractText: extract.Extract,
		PresignTTL:  defaultPresignTTL,
		Now:         time.Now,
	}
}

// UploadInput carries one multipart resume submission. The string fields are
// operator overrides that take precedence over parsed values; Companies and
// Keywords are comma-separated lists.
type UploadInput struct {
	FileName       string
	Data           []byte
	Name           string
	Major          string
	GraduationYear string
	Companies      string
	Keywords       string
	UploadedBy     string
}

// SearchResult pairs a resume with a time-limited download URL. PdfURL is
// empty when the link could not be generated.
type SearchResult struct {
	Resume
	PdfURL string
}

// Ingest runs the upload pipeline: validate, extract text, parse fields,
// process data, store the blob, resolve entities, and persist the record.
// A fatal failure after the blob is written triggers a best-effort blob
// delete so storage does not accumulate orphans.
func (s *Service) Ingest(ctx context.Context, in UploadInput) (Resume, error) {
	// validation
	if err := validateUpload(in); err != nil {
		return Resume{}, err
	}
	// Once validation passes the pipeline runs to completion; a client
	// disconnect must not strand a written blob without its record or its
	// compensating delete.
	ctx = context.WithoutCancel(ctx)
	metrics.IncUploadStarted()
	started := time.Now()

	// resume_parsing
	text, err := s.ExtractText(ctx, in.Data)
	if err != nil {
		var failure *extract.Failure
		if !errors.As(err, &failure) {
			metrics.IncUploadFailed()
			return Resume{}, &PipelineError{Step: StepResumeParsing, Message: "Failed to parse resume content. Please check if the PDF is valid and not password-protected.", Err: err}
		}
		// Degraded extraction still flows through the parser so the
		// operator's overrides and defaults apply.
		text = extract.FallbackText(failure.Reason)
	}

	fields, parseErr := s.Parser.Extract(ctx, text)
	parsingWarning := ""
	if parseErr != nil {
		parsingWarning = parseErr.Error()
	}

	// data_processing
	record := s.buildRecord(in, fields, parsingWarning)
	companies, keywords := resolveLists(in, fields)

	// s3_upload
	now := s.now()
	storageKey := util.ResumeStorageKey(record.Name, now)
	_, size, err := s.Store.Put(ctx, storageKey, "application/pdf", bytes.NewReader(in.Data))
	if err != nil {
		metrics.IncUploadFailed()
		return Resume{}, &PipelineError{Step: StepUpload, Message: "Error storing the resume file. Please try again.", Err: err}
	}
	record.StorageKey = storageKey
	record.FileSize = size

	// associate_companies / associate_keywords: find-or-create runs outside
	// the record transaction, so entities survive a later rollback. A failure
	// in one category stops that category and the pipeline continues with
	// whatever resolved.
	companyIDs := s.resolveEntities(ctx, companies, s.Repo.FindOrCreateCompany, StepAssociateCompanies)
	keywordIDs := s.resolveEntities(ctx, keywords, s.Repo.FindOrCreateKeyword, StepAssociateKeywords)
	// Resolution stops at the first failure, so the resolved prefix is
	// exactly what gets linked; the stored lists must not claim more.
	record.Companies = companies[:len(companyIDs)]
	record.Keywords = keywords[:len(keywordIDs)]

	// database_create / transaction_commit
	created, err := s.Repo.Create(ctx, record, companyIDs, keywordIDs)
	if err != nil {
		s.compensate(ctx, storageKey)
		metrics.IncUploadFailed()
		step := StepDatabaseCreate
		msg := "Failed to save resume information to the database."
		if errors.Is(err, ErrTxCommit) {
			step = StepTransactionCommit
			msg = "Failed to finalize the resume upload."
		}
		return Resume{}, &PipelineError{Step: step, Message: msg, Err: err}
	}

	metrics.IncUploadCompleted()
	metrics.ObserveUploadDurationMs(float64(time.Since(started).Milliseconds()))
	telemetry.Info("resume.ingested", map[string]any{
		"resume_id":   created.ID,
		"storage_key": created.StorageKey,
		"size_bytes":  created.FileSize,
		"warning":     created.ParsingWarning != "",
	})
	return created, nil
}

func validateUpload(in UploadInput) error {
	if len(in.Data) == 0 {
		return &ClientInputError{Message: "No resume file was provided."}
	}
	if len(in.Data) > maxUploadSize {
		return &ClientInputError{Message: "Resume file exceeds the 10MB size limit."}
	}
	if !bytes.HasPrefix(in.Data, []byte("%PDF")) {
		return &ClientInputError{Message: "Only PDF files are accepted."}
	}
	return nil
}

// buildRecord applies the form-over-parsed-over-default precedence and field
// caps.
func (s *Service) buildRecord(in UploadInput, fields parse.Fields, warning string) Resume {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = fields.Name
	}
	if name == "" {
		name = normalize.FormatName(stemOf(in.FileName))
	}

	major := strings.TrimSpace(in.Major)
	if major == "" {
		major = fields.Major
	}
	if major == "" {
		major = unspecified
	}

	year := strings.TrimSpace(in.GraduationYear)
	if year != "" {
		year = normalize.ExtractLatestYear(year)
		if !normalize.ValidGraduationYear(year) {
			year = ""
		}
	}
	if year == "" {
		year = fields.GraduationYear
	}
	if year == "" || year == unspecified {
		year = unspecified
	}

	uploadedBy := strings.TrimSpace(in.UploadedBy)
	if uploadedBy == "" {
		uploadedBy = "admin"
	}

	return Resume{
		Name:           truncateField(name),
		Major:          truncateField(major),
		GraduationYear: truncateField(year),
		UploadedBy:     uploadedBy,
		ParsingWarning: warning,
		IsActive:       true,
	}
}

// resolveLists picks form overrides over parsed lists, then normalizes,
// deduplicates, and caps them.
func resolveLists(in UploadInput, fields parse.Fields) (companies, keywords []string) {
	companies = fields.Companies
	if strings.TrimSpace(in.Companies) != "" {
		companies = splitList(in.Companies)
	}
	normalized := make([]string, 0, len(companies))
	for _, c := range companies {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			normalized = append(normalized, normalize.TitleCase(trimmed))
		}
	}
	companies = dedupeAndCap(normalized)

	keywords = fields.Keywords
	if strings.TrimSpace(in.Keywords) != "" {
		keywords = splitList(in.Keywords)
	}
	keywords = dedupeAndCap(keywords)
	return companies, keywords
}

// resolveEntities maps names to entity IDs via find-or-create. The first
// failure stops the loop; association is best-effort.
func (s *Service) resolveEntities(ctx context.Context, names []string, lookup func(context.Context, string) (Entity, error), step string) []string {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		entity, err := lookup(ctx, name)
		if err != nil {
			telemetry.Error("entity association failed, continuing with partial list", map[string]any{
				"step":  step,
				"name":  name,
				"error": err.Error(),
			})
			break
		}
		ids = append(ids, entity.ID)
	}
	return ids
}

func (s *Service) compensate(ctx context.Context, storageKey string) {
	// Cleanup must proceed even when the caller's context is already dead.
	ctx = context.WithoutCancel(ctx)
	if err := s.Store.Delete(ctx, storageKey); err != nil {
		telemetry.Error("blob cleanup after failed upload did not succeed", map[string]any{
			"storage_key": storageKey,
			"error":       err.Error(),
		})
	}
}

// Search returns active resumes matching the filter, newest first, each with
// a presigned download URL when one could be generated.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]SearchResult, error) {
	records, err := s.Repo.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	ttl := s.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	results := make([]SearchResult, 0, len(records))
	for _, r := range records {
		url, err := s.Store.PresignGet(ctx, r.StorageKey, ttl)
		if err != nil {
			telemetry.Error("presign failed for search result", map[string]any{
				"resume_id": r.ID,
				"error":     err.Error(),
			})
			url = ""
		}
		results = append(results, SearchResult{Resume: r, PdfURL: url})
	}
	return results, nil
}

// Filters returns the distinct filter values drawn from active resumes.
func (s *Service) Filters(ctx context.Context) (FilterOptions, error) {
	return s.Repo.Filters(ctx)
}

// Get returns one active resume with a presigned download URL.
func (s *Service) Get(ctx context.Context, id string) (SearchResult, error) {
	record, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return SearchResult{}, err
	}

	ttl := s.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	url, err := s.Store.PresignGet(ctx, record.StorageKey, ttl)
	if err != nil {
		telemetry.Error("presign failed", map[string]any{"resume_id": record.ID, "error": err.Error()})
		url = ""
	}
	return SearchResult{Resume: record, PdfURL: url}, nil
}

// UpdateInput carries an edit to an existing resume. Companies and Keywords
// are comma-separated replacement lists.
type UpdateInput struct {
	Name           string
	Major          string
	GraduationYear string
	Companies      string
	Keywords       string
}

// Update rewrites a resume's fields and replaces its entity associations.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Resume, error) {
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Resume{}, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		current.Name = truncateField(name)
	}
	if major := strings.TrimSpace(in.Major); major != "" {
		current.Major = truncateField(major)
	}
	if year := strings.TrimSpace(in.GraduationYear); year != "" {
		latest := normalize.ExtractLatestYear(year)
		if !normalize.ValidGraduationYear(latest) {
			return Resume{}, &ClientInputError{Message: "Graduation year must be a 4-digit year between 1950 and 2030."}
		}
		current.GraduationYear = latest
	}

	companies := current.Companies
	if strings.TrimSpace(in.Companies) != "" {
		names := make([]string, 0)
		for _, c := range splitList(in.Companies) {
			names = append(names, normalize.TitleCase(c))
		}
		companies = dedupeAndCap(names)
	}
	keywords := current.Keywords
	if strings.TrimSpace(in.Keywords) != "" {
		keywords = dedupeAndCap(splitList(in.Keywords))
	}

	companyIDs := make([]string, 0, len(companies))
	for _, name := range companies {
		entity, err := s.Repo.FindOrCreateCompany(ctx, name)
		if err != nil {
			return Resume{}, fmt.Errorf("resolve company %q: %w", name, err)
		}
		companyIDs = append(companyIDs, entity.ID)
	}
	keywordIDs := make([]string, 0, len(keywords))
	for _, name := range keywords {
		entity, err := s.Repo.FindOrCreateKeyword(ctx, name)
		if err != nil {
			return Resume{}, fmt.Errorf("resolve keyword %q: %w", name, err)
		}
		keywordIDs = append(keywordIDs, entity.ID)
	}

	current.Companies = companies
	current.Keywords = keywords
	current.UpdatedAt = s.now()
	return s.Repo.Update(ctx, current, companyIDs, keywordIDs)
}

// SoftDelete deactivates a resume and removes its blob best-effort. The
// record row stays behind until the retention sweep expires it.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	record, err := s.Repo.SoftDelete(ctx, id, s.now())
	if err != nil {
		return err
	}
	if err := s.Store.Delete(context.WithoutCancel(ctx), record.StorageKey); err != nil {
		telemetry.Error("blob delete on resume removal did not succeed", map[string]any{
			"resume_id":   record.ID,
			"storage_key": record.StorageKey,
			"error":       err.Error(),
		})
	}
	return nil
}

// DeleteAll soft-deletes every active resume and returns how many were
// affected. Zero affected maps to ErrNotFound.
func (s *Service) DeleteAll(ctx context.Context) (int, error) {
	records, err := s.Repo.SoftDeleteAll(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, ErrNotFound
	}
	blobCtx := context.WithoutCancel(ctx)
	for _, r := range records {
		if err := s.Store.Delete(blobCtx, r.StorageKey); err != nil {
			telemetry.Error("blob delete on bulk removal did not succeed", map[string]any{
				"resume_id":   r.ID,
				"storage_key": r.StorageKey,
				"error":       err.Error(),
			})
		}
	}
	return len(records), nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func stemOf(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func truncateField(s string) string {
	if len(s) <= maxFieldLen {
		return s
	}
	// Back up to a rune boundary so the cut never leaves invalid UTF-8.
	cut := maxFieldLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func dedupeAndCap(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}
