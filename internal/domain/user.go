package domain

import "time"

// Roles a user can hold. Authorization beyond this flat string is out of scope.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a persisted user record.
//
// PasswordHash and RefreshTokenHash never appear in JSON responses;
// both are nil for states that carry no credential (OAuth-only
// accounts have no password, logged-out users have no refresh hash).
type User struct {
	ID               string    `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     *string   `db:"password_hash" json:"-"`
	GoogleID         *string   `db:"google_id" json:"google_id,omitempty"`
	ProfilePic       string    `db:"profile_pic" json:"profile_pic"`
	RefreshTokenHash *string   `db:"refresh_token_hash" json:"-"`
	Role             string    `db:"role" json:"role"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account can log in with credentials
// (false for accounts created through Google that never set one).
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
