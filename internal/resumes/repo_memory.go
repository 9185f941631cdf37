package resumes

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errFailInjected = errors.New("injected failure")

// MemoryRepo is an in-memory Repo for tests and local development.
type MemoryRepo struct {
	mu        sync.Mutex
	records   map[string]Resume
	companies map[string]Entity // keyed by name
	keywords  map[string]Entity
	links     map[string]memLinks // resume id -> entity ids

	// FailCreate, when set, makes Create return the error. Lets pipeline
	// tests drive the compensation path.
	FailCreate error
	// FailCompany, when set, makes FindOrCreateCompany fail for that name.
	FailCompany string
}

type memLinks struct {
	companyIDs []string
	keywordIDs []string
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records:   make(map[string]Resume),
		companies: make(map[string]Entity),
		keywords:  make(map[string]Entity),
		links:     make(map[string]memLinks),
	}
}

func (m *MemoryRepo) FindOrCreateCompany(ctx context.Context, name string) (Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCompany != "" && m.FailCompany == name {
		return Entity{}, errFailInjected
	}
	if e, ok := m.companies[name]; ok {
		return e, nil
	}
	e := Entity{ID: uuid.NewString(), Name: name}
	m.companies[name] = e
	return e, nil
}

func (m *MemoryRepo) FindOrCreateKeyword(ctx context.Context, name string) (Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.keywords[name]; ok {
		return e, nil
	}
	e := Entity{ID: uuid.NewString(), Name: name}
	m.keywords[name] = e
	return e, nil
}

func (m *MemoryRepo) Create(ctx context.Context, rec Resume, companyIDs, keywordIDs []string) (Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return Resume{}, m.FailCreate
	}
	rec.ID = uuid.NewString()
	rec.IsActive = true
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	m.records[rec.ID] = rec
	m.links[rec.ID] = memLinks{companyIDs: companyIDs, keywordIDs: keywordIDs}
	return rec, nil
}

func (m *MemoryRepo) GetByID(ctx context.Context, id string) (Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || !rec.IsActive {
		return Resume{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryRepo) Search(ctx context.Context, f SearchFilter) ([]Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	companyIDs, companyMiss := m.matchEntities(m.companies, f.Companies)
	keywordIDs, keywordMiss := m.matchEntities(m.keywords, f.Keywords)
	if companyMiss || keywordMiss {
		return []Resume{}, nil
	}

	out := []Resume{}
	for _, rec := range m.records {
		if !rec.IsActive {
			continue
		}
		if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
			if !strings.Contains(strings.ToLower(rec.Name), q) &&
				!strings.Contains(strings.ToLower(rec.Major), q) &&
				!strings.Contains(strings.ToLower(rec.GraduationYear), q) {
				continue
			}
		}
		if v := strings.TrimSpace(f.Name); v != "" && !strings.Contains(strings.ToLower(rec.Name), strings.ToLower(v)) {
			continue
		}
		if v := strings.TrimSpace(f.Major); v != "" && !strings.Contains(strings.ToLower(rec.Major), strings.ToLower(v)) {
			continue
		}
		if v := strings.TrimSpace(f.GraduationYear); v != "" && rec.GraduationYear != v {
			continue
		}
		if len(companyIDs) > 0 && !hasAny(m.links[rec.ID].companyIDs, companyIDs) {
			continue
		}
		if len(keywordIDs) > 0 && !hasAny(m.links[rec.ID].keywordIDs, keywordIDs) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// matchEntities resolves filter terms case-insensitively. miss is true when
// terms were given but none matched.
func (m *MemoryRepo) matchEntities(byName map[string]Entity, terms []string) (map[string]struct{}, bool) {
	ids := map[string]struct{}{}
	gaveTerms := false
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		gaveTerms = true
		for name, e := range byName {
			if strings.EqualFold(name, term) {
				ids[e.ID] = struct{}{}
			}
		}
	}
	return ids, gaveTerms && len(ids) == 0
}

func hasAny(have []string, want map[string]struct{}) bool {
	for _, id := range have {
		if _, ok := want[id]; ok {
			return true
		}
	}
	return false
}

func (m *MemoryRepo) Filters(ctx context.Context) (FilterOptions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	majors := map[string]struct{}{}
	years := map[string]struct{}{}
	companyIDs := map[string]struct{}{}
	keywordIDs := map[string]struct{}{}
	for _, rec := range m.records {
		if !rec.IsActive {
			continue
		}
		if rec.Major != "" {
			majors[rec.Major] = struct{}{}
		}
		if rec.GraduationYear != "" {
			years[rec.GraduationYear] = struct{}{}
		}
		for _, id := range m.links[rec.ID].companyIDs {
			companyIDs[id] = struct{}{}
		}
		for _, id := range m.links[rec.ID].keywordIDs {
			keywordIDs[id] = struct{}{}
		}
	}

	var opts FilterOptions
	opts.Majors = sortedKeys(majors)
	opts.GraduationYears = sortedKeys(years)
	for name, e := range m.companies {
		if _, ok := companyIDs[e.ID]; ok && name != "" {
			opts.Companies = append(opts.Companies, name)
		}
	}
	for name, e := range m.keywords {
		if _, ok := keywordIDs[e.ID]; ok && name != "" {
			opts.Keywords = append(opts.Keywords, name)
		}
	}
	sort.Strings(opts.Companies)
	sort.Strings(opts.Keywords)
	return opts, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *MemoryRepo) Update(ctx context.Context, rec Resume, companyIDs, keywordIDs []string) (Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[rec.ID]
	if !ok || !existing.IsActive {
		return Resume{}, ErrNotFound
	}
	existing.Name = rec.Name
	existing.Major = rec.Major
	existing.GraduationYear = rec.GraduationYear
	existing.Companies = rec.Companies
	existing.Keywords = rec.Keywords
	existing.UpdatedAt = time.Now()
	m.records[rec.ID] = existing
	m.links[rec.ID] = memLinks{companyIDs: companyIDs, keywordIDs: keywordIDs}
	return existing, nil
}

func (m *MemoryRepo) SoftDelete(ctx context.Context, id string, when time.Time) (Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || !rec.IsActive {
		return Resume{}, ErrNotFound
	}
	rec.IsActive = false
	rec.DeletedAt = &when
	m.records[id] = rec
	return rec, nil
}

func (m *MemoryRepo) SoftDeleteAll(ctx context.Context, when time.Time) ([]Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Resume{}
	for id, rec := range m.records {
		if !rec.IsActive {
			continue
		}
		rec.IsActive = false
		rec.DeletedAt = &when
		m.records[id] = rec
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryRepo) ListExpired(ctx context.Context, cutoff time.Time) ([]Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Resume{}
	for _, rec := range m.records {
		if rec.IsActive || rec.DeletedAt == nil {
			continue
		}
		if !rec.DeletedAt.After(cutoff) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.Before(*out[j].DeletedAt) })
	return out, nil
}

func (m *MemoryRepo) HardDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	delete(m.links, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
