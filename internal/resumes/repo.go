package resumes

import (
	"context"
	"time"
)

// Repo defines resume persistence.
//
// FindOrCreateCompany and FindOrCreateKeyword run outside any record
// transaction: entities created for an upload that later fails are left in
// place and reused by the next upload.
type Repo interface {
	FindOrCreateCompany(ctx context.Context, name string) (Entity, error)
	FindOrCreateKeyword(ctx context.Context, name string) (Entity, error)

	// Create inserts the record and its association rows in one transaction.
	// A commit failure is reported wrapping ErrTxCommit.
	Create(ctx context.Context, r Resume, companyIDs, keywordIDs []string) (Resume, error)

	GetByID(ctx context.Context, id string) (Resume, error)
	Search(ctx context.Context, f SearchFilter) ([]Resume, error)
	Filters(ctx context.Context) (FilterOptions, error)

	// Update rewrites the record fields and replaces its association rows in
	// one transaction.
	Update(ctx context.Context, r Resume, companyIDs, keywordIDs []string) (Resume, error)

	// SoftDelete deactivates the record and stamps deletedAt, returning the
	// record as it was so callers can reach its storage key.
	SoftDelete(ctx context.Context, id string, when time.Time) (Resume, error)
	// SoftDeleteAll deactivates every active record and returns them.
	SoftDeleteAll(ctx context.Context, when time.Time) ([]Resume, error)

	// ListExpired returns inactive records whose deletedAt is at or before
	// the cutoff.
	ListExpired(ctx context.Context, cutoff time.Time) ([]Resume, error)
	// HardDelete removes the record row permanently.
	HardDelete(ctx context.Context, id string) error
}
