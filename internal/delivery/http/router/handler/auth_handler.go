// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/delivery/http/response"
	"gatekeeper/internal/delivery/middleware"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Request bodies. The caps mirror the column widths; the credential rules live
// in the usecase and passwords are bounded only by the body limit.
type (
	registerRequest struct {
		Username string `json:"username" validate:"max=64"`
		Email    string `json:"email" validate:"max=254"`
		Password string `json:"password"`
	}

	loginRequest struct {
		Username string `json:"username" validate:"max=64"`
		Password string `json:"password"`
	}

	changeEmailRequest struct {
		Email string `json:"email" validate:"max=254"`
	}

	changePasswordRequest struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
)

// AuthHandler serves the credential endpoints.
type AuthHandler struct {
	uc     usecase.CredentialUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(uc usecase.CredentialUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		logger: logger,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		middleware.RecordAuthAttempt(middleware.AuthEventRegister, false)

		return err
	}

	user, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	middleware.RecordAuthAttempt(middleware.AuthEventRegister, err == nil)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.User(c, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		middleware.RecordAuthAttempt(middleware.AuthEventLogin, false)

		return errors.Join(domainerrors.ErrInvalidRequestBody, err)
	}
	// No stored account can exceed the caps.
	if err := c.Validate(&req); err != nil {
		middleware.RecordAuthAttempt(middleware.AuthEventLogin, false)

		return domainerrors.ErrInvalidCredentials
	}

	output, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	middleware.RecordAuthAttempt(middleware.AuthEventLogin, err == nil)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Login(c, http.StatusOK, output.User, output.Token)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	identity, ok := deliverycontext.GetIdentity(c)
	if !ok {
		return domainerrors.ErrNoToken
	}

	user, err := h.uc.GetByID(c.Request().Context(), identity.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.User(c, http.StatusOK, user)
}

// ChangeEmail handles PATCH /auth/email.
func (h *AuthHandler) ChangeEmail(c echo.Context) error {
	identity, ok := deliverycontext.GetIdentity(c)
	if !ok {
		return domainerrors.ErrNoToken
	}

	var req changeEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		middleware.RecordAuthAttempt(middleware.AuthEventChangeEmail, false)

		return err
	}

	user, err := h.uc.ChangeEmail(c.Request().Context(), identity.UserID, req.Email)
	middleware.RecordAuthAttempt(middleware.AuthEventChangeEmail, err == nil)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.User(c, http.StatusOK, user)
}

// ChangePassword handles PATCH /auth/password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	identity, ok := deliverycontext.GetIdentity(c)
	if !ok {
		return domainerrors.ErrNoToken
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		middleware.RecordAuthAttempt(middleware.AuthEventChangePassword, false)

		return err
	}

	user, err := h.uc.ChangePassword(c.Request().Context(), identity.UserID, &usecase.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	middleware.RecordAuthAttempt(middleware.AuthEventChangePassword, err == nil)
	if err != nil {
		return errors.WithStack(err)
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
		Info("Password changed", slog.String("user_id", user.ID))

	return response.User(c, http.StatusOK, user)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.Join(domainerrors.ErrInvalidRequestBody, err)
	}

	return c.Validate(req)
}
