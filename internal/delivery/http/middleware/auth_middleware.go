package middleware

import (
	"strings"

	deliverycontext "gatekeeper/internal/delivery/context"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"

	"github.com/labstack/echo/v4"
)

const bearerScheme = "Bearer"

// AuthMiddleware authorizes requests carrying a session token. It trusts the
// token alone and never consults the credential store.
type AuthMiddleware struct {
	tokens service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokens service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate requires an "Authorization: Bearer <token>" header and stores
// the verified identity on the request.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return domainerrors.ErrNoToken
		}

		identity, err := m.tokens.Verify(token)
		if err != nil {
			return errors.Join(domainerrors.ErrInvalidToken, err)
		}
		if identity == nil {
			return domainerrors.ErrInvalidToken
		}

		deliverycontext.SetIdentity(c, identity)

		return next(c)
	}
}

// bearerToken returns everything after the "Bearer " prefix. A present but
// malformed token is left for Verify to reject.
func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, bearerScheme+" ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}

	return token, true
}
