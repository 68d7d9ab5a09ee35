// Package service defines interfaces for stateless collaborators of the credential service.
package service

// PasswordHasher defines the interface for password hashing and verification.
// Hash is salted and therefore non-deterministic; hashes must only ever be
// compared through Check.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a hash to see if they match.
	Check(password, hash string) bool
}
