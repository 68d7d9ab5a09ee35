// Package entity contains the core business objects of the credential service.
package entity

import (
	"strings"
	"time"
)

// User is the identity record owned by the credential service.
// PasswordHash always holds a hasher output, never the plaintext.
type User struct {
	ID           string    // Store-assigned identifier. Empty until the user is persisted.
	Username     string    // Unique login name, immutable after creation.
	Email        string    // Unique contact address, stored lower-cased.
	PasswordHash string    // Output of the password hasher.
	CreatedAt    time.Time // Set by the store on creation.
	UpdatedAt    time.Time // Set by the store on every write.
}

// PublicUser is the externally exposed form of a User. It never carries the hash.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUser builds a not-yet-persisted user from already validated input.
func NewUser(username, email, passwordHash string) *User {
	return &User{
		Username:     NormalizeUsername(username),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
	}
}

// PublicView returns the subset of fields safe to expose.
func (u *User) PublicView() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// Identity returns the claims a session token binds for this user.
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// UpdateEmail replaces the email with its normalized form.
func (u *User) UpdateEmail(email string) {
	u.Email = NormalizeEmail(email)
}

// UpdatePasswordHash replaces the stored hash.
func (u *User) UpdatePasswordHash(hash string) {
	u.PasswordHash = hash
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
