// Package retention expires soft-deleted resumes: after the retention window
// passes, their blobs are removed and the record rows are hard-deleted.
package retention

import (
	"context"
	"time"

	"github.com/gtakpsi-software-dev/resume-app/internal/resumes"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/metrics"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/storage/object"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/telemetry"
)

// DefaultRetention is how long a soft-deleted resume is kept before the
// sweep removes it for good.
const DefaultRetention = 30 * 24 * time.Hour

// Summary reports one sweep run.
type Summary struct {
	Eligible int
	Deleted  int
	Failures int
}

// Sweeper removes expired soft-deleted resumes.
type Sweeper struct {
	Repo      resumes.Repo
	Store     object.BlobStore
	Retention time.Duration
	Now       func() time.Time
}

// NewSweeper constructs a Sweeper with the default retention window.
func NewSweeper(repo resumes.Repo, store object.BlobStore) *Sweeper {
	return &Sweeper{
		Repo:      repo,
		Store:     store,
		Retention: DefaultRetention,
		Now:       time.Now,
	}
}

// Run sweeps once. A blob-delete failure counts as a failure but never
// blocks the record hard-delete; item failures never abort the run.
func (s *Sweeper) Run(ctx context.Context) (Summary, error) {
	retention := s.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	cutoff := s.now().Add(-retention)

	expired, err := s.Repo.ListExpired(ctx, cutoff)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Eligible: len(expired)}
	for _, rec := range expired {
		if err := s.Store.Delete(ctx, rec.StorageKey); err != nil {
			summary.Failures++
			telemetry.Error("sweep blob delete failed", map[string]any{
				"resume_id":   rec.ID,
				"storage_key": rec.StorageKey,
				"error":       err.Error(),
			})
		}
		if err := s.Repo.HardDelete(ctx, rec.ID); err != nil {
			summary.Failures++
			telemetry.Error("sweep record delete failed", map[string]any{
				"resume_id": rec.ID,
				"error":     err.Error(),
			})
			continue
		}
		summary.Deleted++
	}

	metrics.AddSweepDeleted(summary.Deleted)
	telemetry.Info("sweep complete", map[string]any{
		"eligible": summary.Eligible,
		"deleted":  summary.Deleted,
		"failures": summary.Failures,
	})
	return summary, nil
}

// Start runs the sweep daily at midnight UTC until the context is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	for {
		wait := time.Until(nextMidnightUTC(s.now()))
		select {
		case <-time.After(wait):
			if _, err := s.Run(ctx); err != nil {
				telemetry.Error("scheduled sweep failed", map[string]any{"error": err.Error()})
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func nextMidnightUTC(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
