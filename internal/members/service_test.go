package members

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gtakpsi-software-dev/resume-app/internal/shared/auth"
)

func newTestService() *Service {
	tokens := auth.New("test-secret", time.Hour)
	return NewService(NewMemoryRepo(), tokens, "admin-password", "rush-2026")
}

func TestAdminLogin(t *testing.T) {
	svc := newTestService()

	token, err := svc.AdminLogin(context.Background(), "admin-password")
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	claims, err := svc.Tokens.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Role != auth.RoleAdmin {
		t.Fatalf("role = %q, want %q", claims.Role, auth.RoleAdmin)
	}
	if claims.Subject != "admin" {
		t.Fatalf("subject = %q, want admin", claims.Subject)
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	svc := newTestService()

	if _, err := svc.AdminLogin(context.Background(), "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAdminLoginUnconfigured(t *testing.T) {
	svc := newTestService()
	svc.AdminPassword = ""

	if _, err := svc.AdminLogin(context.Background(), ""); err == nil {
		t.Fatal("expected an error when no admin password is configured")
	}
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:      "Brother@Example.edu",
		Password:   "correct horse",
		FirstName:  "Alex",
		LastName:   "Nguyen",
		AccessCode: "rush-2026",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()

	member, token, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if member.Email != "brother@example.edu" {
		t.Fatalf("email = %q, want lowercased", member.Email)
	}
	if member.PasswordHash == "correct horse" {
		t.Fatal("password stored unhashed")
	}
	claims, err := svc.Tokens.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Role != auth.RoleMember {
		t.Fatalf("role = %q, want %q", claims.Role, auth.RoleMember)
	}

	got, _, err := svc.Login(context.Background(), "brother@example.edu", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != member.ID {
		t.Fatalf("logged-in member ID = %q, want %q", got.ID, member.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }, ErrInvalidInput},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, ErrInvalidInput},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, ErrInvalidInput},
		{"missing name", func(in *RegisterInput) { in.FirstName = "" }, ErrInvalidInput},
		{"wrong access code", func(in *RegisterInput) { in.AccessCode = "guess" }, ErrInvalidAccessCode},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService()
			in := validRegistration()
			tc.mutate(&in)
			if _, _, err := svc.Register(context.Background(), in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()

	if _, _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), validRegistration()); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()

	if _, _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "brother@example.edu", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService()

	if _, _, err := svc.Login(context.Background(), "nobody@example.edu", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
