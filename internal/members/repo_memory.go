package members

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repo for tests and local development.
type MemoryRepo struct {
	mu      sync.Mutex
	byEmail map[string]Member
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byEmail: make(map[string]Member)}
}

func (m *MemoryRepo) Create(ctx context.Context, member Member) (Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(member.Email)
	if _, ok := m.byEmail[key]; ok {
		return Member{}, ErrDuplicateEmail
	}
	member.ID = uuid.NewString()
	member.CreatedAt = time.Now()
	m.byEmail[key] = member
	return member, nil
}

func (m *MemoryRepo) GetByEmail(ctx context.Context, email string) (Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return Member{}, ErrNotFound
	}
	return member, nil
}

var _ Repo = (*MemoryRepo)(nil)
