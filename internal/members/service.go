package members

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/gtakpsi-software-dev/resume-app/internal/shared/auth"
)

// ErrInvalidCredentials is returned for a wrong password or unknown account.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidAccessCode is returned when registration carries the wrong
// chapter access code.
var ErrInvalidAccessCode = errors.New("invalid access code")

// ErrInvalidInput flags a malformed registration or login request.
var ErrInvalidInput = errors.New("invalid input")

// Service implements account registration and session issuance.
type Service struct {
	Repo          Repo
	Tokens        *auth.Service
	AdminPassword string
	AccessCode    string
}

// NewService wires a Service.
func NewService(repo Repo, tokens *auth.Service, adminPassword, accessCode string) *Service {
	return &Service{
		Repo:          repo,
		Tokens:        tokens,
		AdminPassword: adminPassword,
		AccessCode:    accessCode,
	}
}

// AdminLogin checks the env-configured admin password and issues an admin
// session token.
func (s *Service) AdminLogin(ctx context.Context, password string) (string, error) {
	if s.AdminPassword == "" {
		return "", fmt.Errorf("admin login is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.AdminPassword)) != 1 {
		return "", ErrInvalidCredentials
	}
	return s.Tokens.GenerateToken("admin", auth.RoleAdmin)
}

// RegisterInput carries a member registration request.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	AccessCode string
}

// Register creates a member account gated by the chapter access code and
// issues a session token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Member, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return Member{}, "", fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return Member{}, "", fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if in.FirstName == "" || in.LastName == "" {
		return Member{}, "", fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if s.AccessCode == "" || subtle.ConstantTimeCompare([]byte(in.AccessCode), []byte(s.AccessCode)) != 1 {
		return Member{}, "", ErrInvalidAccessCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Member{}, "", fmt.Errorf("hash password: %w", err)
	}

	member, err := s.Repo.Create(ctx, Member{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		return Member{}, "", err
	}

	token, err := s.Tokens.GenerateToken(member.Email, auth.RoleMember)
	if err != nil {
		return Member{}, "", err
	}
	return member, token, nil
}

// Profile returns the member account behind a session subject.
func (s *Service) Profile(ctx context.Context, email string) (Member, error) {
	return s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Login verifies a member's password and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Member, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	member, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Member{}, "", ErrInvalidCredentials
		}
		return Member{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)) != nil {
		return Member{}, "", ErrInvalidCredentials
	}

	token, err := s.Tokens.GenerateToken(member.Email, auth.RoleMember)
	if err != nil {
		return Member{}, "", err
	}
	return member, token, nil
}
