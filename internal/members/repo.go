package members

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no member matches the lookup.
var ErrNotFound = errors.New("member not found")

// ErrDuplicateEmail is returned when registration hits an existing email.
var ErrDuplicateEmail = errors.New("email already registered")

// Repo defines member persistence.
type Repo interface {
	Create(ctx context.Context, m Member) (Member, error)
	GetByEmail(ctx context.Context, email string) (Member, error)
}
