package resumes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const resumeColumns = `id, name, major, graduation_year, storage_key, file_size, uploaded_by, parsing_warning, is_active, deleted_at, created_at, updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// FindOrCreateCompany returns the company row with the given name, creating
// it when absent. A concurrent-create unique violation falls back to a
// re-fetch.
func (r *PGRepo) FindOrCreateCompany(ctx context.Context, name string) (Entity, error) {
	return r.findOrCreate(ctx, "companies", name)
}

// FindOrCreateKeyword behaves like FindOrCreateCompany for keywords.
func (r *PGRepo) FindOrCreateKeyword(ctx context.Context, name string) (Entity, error) {
	return r.findOrCreate(ctx, "keywords", name)
}

func (r *PGRepo) findOrCreate(ctx context.Context, table, name string) (Entity, error) {
	selectQuery := fmt.Sprintf(`SELECT id, name FROM %s WHERE name = $1`, table)

	var entity Entity
	err := r.DB.QueryRowContext(ctx, selectQuery, name).Scan(&entity.ID, &entity.Name)
	if err == nil {
		return entity, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Entity{}, err
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s (id, name) VALUES ($1, $2) RETURNING id, name`, table)
	err = r.DB.QueryRowContext(ctx, insertQuery, uuid.NewString(), name).Scan(&entity.ID, &entity.Name)
	if err == nil {
		return entity, nil
	}
	if isUniqueViolation(err) {
		// Lost the race: another upload created the row first.
		if err := r.DB.QueryRowContext(ctx, selectQuery, name).Scan(&entity.ID, &entity.Name); err != nil {
			return Entity{}, err
		}
		return entity, nil
	}
	return Entity{}, err
}

// Create inserts the record and its association rows in one transaction.
func (r *PGRepo) Create(ctx context.Context, rec Resume, companyIDs, keywordIDs []string) (Resume, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Resume{}, err
	}
	defer tx.Rollback()

	const insertQuery = `
INSERT INTO resumes (id, name, major, graduation_year, storage_key, file_size, uploaded_by, parsing_warning, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
RETURNING created_at, updated_at`

	id := uuid.NewString()
	if err := tx.QueryRowContext(
		ctx,
		insertQuery,
		id,
		rec.Name,
		rec.Major,
		rec.GraduationYear,
		rec.StorageKey,
		rec.FileSize,
		rec.UploadedBy,
		rec.ParsingWarning,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Resume{}, err
	}
	rec.ID = id
	rec.IsActive = true

	if err := insertLinks(ctx, tx, "resume_companies", "company_id", id, companyIDs); err != nil {
		return Resume{}, err
	}
	if err := insertLinks(ctx, tx, "resume_keywords", "keyword_id", id, keywordIDs); err != nil {
		return Resume{}, err
	}

	if err := tx.Commit(); err != nil {
		return Resume{}, fmt.Errorf("%w: %v", ErrTxCommit, err)
	}
	return rec, nil
}

func insertLinks(ctx context.Context, tx *sql.Tx, table, column, resumeID string, entityIDs []string) error {
	if len(entityIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (resume_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, column)
	for _, entityID := range entityIDs {
		if _, err := tx.ExecContext(ctx, query, resumeID, entityID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches one active resume with its entity names.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Resume, error) {
	query := fmt.Sprintf(`SELECT %s FROM resumes WHERE id = $1 AND is_active = TRUE`, resumeColumns)

	rec, err := scanResume(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	if err := r.loadAssociations(ctx, &rec); err != nil {
		return Resume{}, err
	}
	return rec, nil
}

// Search returns active resumes matching the filter, newest first. Company
// and keyword terms resolve to entity IDs first; a term set that matches no
// entities short-circuits to an empty result.
func (r *PGRepo) Search(ctx context.Context, f SearchFilter) ([]Resume, error) {
	conds := []string{"is_active = TRUE"}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + q + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR major ILIKE %s OR graduation_year ILIKE %s)", p, p, p))
	}
	if v := strings.TrimSpace(f.Name); v != "" {
		conds = append(conds, fmt.Sprintf("name ILIKE %s", arg("%"+v+"%")))
	}
	if v := strings.TrimSpace(f.Major); v != "" {
		conds = append(conds, fmt.Sprintf("major ILIKE %s", arg("%"+v+"%")))
	}
	if v := strings.TrimSpace(f.GraduationYear); v != "" {
		conds = append(conds, fmt.Sprintf("graduation_year = %s", arg(v)))
	}

	if len(f.Companies) > 0 {
		ids, err := r.entityIDsByName(ctx, "companies", f.Companies)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []Resume{}, nil
		}
		placeholders := make([]string, 0, len(ids))
		for _, id := range ids {
			placeholders = append(placeholders, arg(id))
		}
		conds = append(conds, fmt.Sprintf("id IN (SELECT resume_id FROM resume_companies WHERE company_id IN (%s))", strings.Join(placeholders, ", ")))
	}
	if len(f.Keywords) > 0 {
		ids, err := r.entityIDsByName(ctx, "keywords", f.Keywords)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []Resume{}, nil
		}
		placeholders := make([]string, 0, len(ids))
		for _, id := range ids {
			placeholders = append(placeholders, arg(id))
		}
		conds = append(conds, fmt.Sprintf("id IN (SELECT resume_id FROM resume_keywords WHERE keyword_id IN (%s))", strings.Join(placeholders, ", ")))
	}

	query := fmt.Sprintf(`SELECT %s FROM resumes WHERE %s ORDER BY created_at DESC`, resumeColumns, strings.Join(conds, " AND "))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Resume{}
	for rows.Next() {
		rec, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadAssociations(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PGRepo) entityIDsByName(ctx context.Context, table string, names []string) ([]string, error) {
	ids := []string{}
	query := fmt.Sprintf(`SELECT id FROM %s WHERE name ILIKE $1`, table)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		rows, err := r.DB.QueryContext(ctx, query, name)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return ids, nil
}

// Filters returns the distinct filter values referenced by active resumes.
func (r *PGRepo) Filters(ctx context.Context) (FilterOptions, error) {
	var opts FilterOptions
	var err error

	if opts.Majors, err = r.distinctColumn(ctx, `SELECT DISTINCT major FROM resumes WHERE is_active = TRUE AND major <> '' ORDER BY major`); err != nil {
		return FilterOptions{}, err
	}
	if opts.GraduationYears, err = r.distinctColumn(ctx, `SELECT DISTINCT graduation_year FROM resumes WHERE is_active = TRUE AND graduation_year <> '' ORDER BY graduation_year`); err != nil {
		return FilterOptions{}, err
	}
	if opts.Companies, err = r.distinctColumn(ctx, `
SELECT DISTINCT c.name FROM companies c
JOIN resume_companies rc ON rc.company_id = c.id
JOIN resumes r ON r.id = rc.resume_id AND r.is_active = TRUE
WHERE c.name <> ''
ORDER BY c.name`); err != nil {
		return FilterOptions{}, err
	}
	if opts.Keywords, err = r.distinctColumn(ctx, `
SELECT DISTINCT k.name FROM keywords k
JOIN resume_keywords rk ON rk.keyword_id = k.id
JOIN resumes r ON r.id = rk.resume_id AND r.is_active = TRUE
WHERE k.name <> ''
ORDER BY k.name`); err != nil {
		return FilterOptions{}, err
	}
	return opts, nil
}

func (r *PGRepo) distinctColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Update rewrites the record and replaces its association rows in one
// transaction.
func (r *PGRepo) Update(ctx context.Context, rec Resume, companyIDs, keywordIDs []string) (Resume, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Resume{}, err
	}
	defer tx.Rollback()

	const updateQuery = `
UPDATE resumes
SET name = $1, major = $2, graduation_year = $3, updated_at = now()
WHERE id = $4 AND is_active = TRUE
RETURNING updated_at`
	if err := tx.QueryRowContext(ctx, updateQuery, rec.Name, rec.Major, rec.GraduationYear, rec.ID).Scan(&rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}

	for _, table := range []string{"resume_companies", "resume_keywords"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE resume_id = $1`, table), rec.ID); err != nil {
			return Resume{}, err
		}
	}
	if err := insertLinks(ctx, tx, "resume_companies", "company_id", rec.ID, companyIDs); err != nil {
		return Resume{}, err
	}
	if err := insertLinks(ctx, tx, "resume_keywords", "keyword_id", rec.ID, keywordIDs); err != nil {
		return Resume{}, err
	}

	if err := tx.Commit(); err != nil {
		return Resume{}, fmt.Errorf("%w: %v", ErrTxCommit, err)
	}
	return rec, nil
}

// SoftDelete deactivates one active record.
func (r *PGRepo) SoftDelete(ctx context.Context, id string, when time.Time) (Resume, error) {
	query := fmt.Sprintf(`
UPDATE resumes
SET is_active = FALSE, deleted_at = $2, updated_at = now()
WHERE id = $1 AND is_active = TRUE
RETURNING %s`, resumeColumns)

	rec, err := scanResume(r.DB.QueryRowContext(ctx, query, id, when))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return rec, nil
}

// SoftDeleteAll deactivates every active record.
func (r *PGRepo) SoftDeleteAll(ctx context.Context, when time.Time) ([]Resume, error) {
	query := fmt.Sprintf(`
UPDATE resumes
SET is_active = FALSE, deleted_at = $1, updated_at = now()
WHERE is_active = TRUE
RETURNING %s`, resumeColumns)

	rows, err := r.DB.QueryContext(ctx, query, when)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Resume{}
	for rows.Next() {
		rec, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListExpired returns inactive records past the retention cutoff.
func (r *PGRepo) ListExpired(ctx context.Context, cutoff time.Time) ([]Resume, error) {
	query := fmt.Sprintf(`
SELECT %s FROM resumes
WHERE is_active = FALSE AND deleted_at IS NOT NULL AND deleted_at <= $1
ORDER BY deleted_at ASC`, resumeColumns)

	rows, err := r.DB.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Resume{}
	for rows.Next() {
		rec, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// HardDelete removes the record row; association rows cascade.
func (r *PGRepo) HardDelete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	return err
}

func (r *PGRepo) loadAssociations(ctx context.Context, rec *Resume) error {
	var err error
	if rec.Companies, err = r.namesForResume(ctx, `
SELECT c.name FROM companies c
JOIN resume_companies rc ON rc.company_id = c.id
WHERE rc.resume_id = $1
ORDER BY c.name`, rec.ID); err != nil {
		return err
	}
	if rec.Keywords, err = r.namesForResume(ctx, `
SELECT k.name FROM keywords k
JOIN resume_keywords rk ON rk.keyword_id = k.id
WHERE rk.resume_id = $1
ORDER BY k.name`, rec.ID); err != nil {
		return err
	}
	return nil
}

func (r *PGRepo) namesForResume(ctx context.Context, query, resumeID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, resumeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var rec Resume
	var deletedAt sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Major,
		&rec.GraduationYear,
		&rec.StorageKey,
		&rec.FileSize,
		&rec.UploadedBy,
		&rec.ParsingWarning,
		&rec.IsActive,
		&deletedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Resume{}, err
	}
	if deletedAt.Valid {
		rec.DeletedAt = &deletedAt.Time
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repo = (*PGRepo)(nil)
