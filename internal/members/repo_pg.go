package members

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new member. A duplicate email maps to ErrDuplicateEmail.
func (r *PGRepo) Create(ctx context.Context, m Member) (Member, error) {
	const query = `
INSERT INTO members (id, email, password_hash, first_name, last_name)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`

	m.ID = uuid.NewString()
	err := r.DB.QueryRowContext(ctx, query, m.ID, m.Email, m.PasswordHash, m.FirstName, m.LastName).Scan(&m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Member{}, ErrDuplicateEmail
		}
		return Member{}, err
	}
	return m, nil
}

// GetByEmail fetches a member by email.
func (r *PGRepo) GetByEmail(ctx context.Context, email string) (Member, error) {
	const query = `
SELECT id, email, password_hash, first_name, last_name, created_at
FROM members
WHERE email = $1`

	var m Member
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&m.ID,
		&m.Email,
		&m.PasswordHash,
		&m.FirstName,
		&m.LastName,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

var _ Repo = (*PGRepo)(nil)
