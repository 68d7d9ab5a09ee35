package service

import (
	"time"

	"gatekeeper/internal/domain/entity"
)

// TokenService issues and verifies self-contained session tokens.
type TokenService interface {
	// Issue signs a token asserting identity, valid for TTL.
	Issue(identity entity.Identity) (string, error)

	// Verify checks signature and expiry and returns the asserted identity.
	// Any failure is reported as domainerrors.ErrInvalidToken.
	Verify(token string) (*entity.Identity, error)

	// TTL returns the lifetime given to issued tokens.
	TTL() time.Duration
}
