package auth

import (
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// identityClaims is the payload of a session token.
type identityClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using HS256 JWTs.
type jwtService struct {
	secret []byte        // Shared signing key for the process lifetime.
	ttl    time.Duration // Lifetime of issued tokens.
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(secret string, ttl time.Duration) (service.TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	if ttl <= 0 {
		return nil, errors.Errorf("jwt ttl must be positive, got %s", ttl)
	}

	return &jwtService{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Issue signs a token asserting identity.
func (s *jwtService) Issue(identity entity.Identity) (string, error) {
	now := time.Now()
	claims := identityClaims{
		UserID:   identity.UserID,
		Username: identity.Username,
		Email:    identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return signed, nil
}

// Verify parses tokenString and returns the identity it asserts.
func (s *jwtService) Verify(tokenString string) (*entity.Identity, error) {
	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, domainerrors.ErrInvalidToken.WrapMessage(err.Error())
	}
	if !token.Valid || claims.UserID == "" {
		return nil, domainerrors.ErrInvalidToken
	}

	return &entity.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}

func (s *jwtService) TTL() time.Duration {
	return s.ttl
}
