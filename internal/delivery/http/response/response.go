// Package response renders the JSON bodies of the HTTP API.
package response

import (
	"net/http"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the body of every failed request. Error is the contract
// field; Code and RequestID help correlate the failure.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// LoginBody is returned by a successful login.
type LoginBody struct {
	User  entity.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// StatusBody is returned by the health endpoints.
type StatusBody struct {
	Status string `json:"status"`
}

// User writes the public view of user.
func User(c echo.Context, statusCode int, user *entity.User) error {
	return c.JSON(statusCode, user.PublicView())
}

// Login writes the authenticated user together with its token.
func Login(c echo.Context, statusCode int, user *entity.User, token string) error {
	return c.JSON(statusCode, LoginBody{
		User:  user.PublicView(),
		Token: token,
	})
}

// Status writes a health status.
func Status(c echo.Context, statusCode int, status string) error {
	return c.JSON(statusCode, StatusBody{Status: status})
}

// Error writes an error body tagged with the request ID.
func Error(c echo.Context, statusCode int, errorCode, message string) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(statusCode)
	}

	return c.JSON(statusCode, ErrorBody{
		Error:     message,
		Code:      errorCode,
		RequestID: deliverycontext.GetRequestID(c),
	})
}
