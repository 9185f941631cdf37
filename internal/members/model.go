// Package members implements chapter accounts and session issuance: the
// env-configured admin login and registered member accounts.
package members

import "time"

// Member is a registered chapter account.
type Member struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}
