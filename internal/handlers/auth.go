package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/atelierhq/backend/internal/auth"
	"github.com/atelierhq/backend/internal/middleware"
	appErrors "github.com/atelierhq/backend/pkg/errors"
	"github.com/atelierhq/backend/pkg/response"
)

// AuthHandler manages authentication and account lifecycle flows.
type AuthHandler struct {
	sessions  *iauth.SessionService
	lifecycle *iauth.LifecycleService
}

func NewAuthHandler(sessions *iauth.SessionService, lifecycle *iauth.LifecycleService) *AuthHandler {
	return &AuthHandler{sessions: sessions, lifecycle: lifecycle}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.sessions.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, err := h.sessions.Refresh(requestContext(c), req.RefreshToken)
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.Logout(requestContext(c), userID); err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.sessions.Profile(requestContext(c), userID)
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	response.Success(c, http.StatusOK, profile)
}

type activateRequest struct {
	Token string `json:"token" validate:"required"`
}

// POST /api/auth/activate
func (h *AuthHandler) Activate(c *gin.Context) {
	var req activateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.lifecycle.ConsumeActivation(requestContext(c), req.Token)
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"activated": true, "email": user.Email})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/activate/resend
func (h *AuthHandler) ResendActivation(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.lifecycle.ResendActivation(requestContext(c), req.Email); err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	// Always reported as accepted; the endpoint leaks nothing about which
	// emails exist.
	response.Success(c, http.StatusAccepted, gin.H{"sent": true})
}

// POST /api/auth/password/forgot
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.lifecycle.RequestReset(requestContext(c), req.Email); err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"sent": true})
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// POST /api/auth/password/reset
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.lifecycle.ConsumeReset(requestContext(c), req.Token, req.NewPassword); err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reset": true})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// POST /api/auth/password/change
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.lifecycle.ChangePassword(requestContext(c), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"changed": true})
}

// mapAuthError translates domain auth errors into API errors. Anything
// unrecognised reads as an internal error so nothing sensitive escapes.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, iauth.ErrInvalidCredentials):
		return appErrors.ErrInvalidCredentials
	case errors.Is(err, iauth.ErrAccountInactive):
		return appErrors.ErrAccountInactive
	case errors.Is(err, iauth.ErrInvalidToken):
		return appErrors.ErrUnauthorized
	case errors.Is(err, iauth.ErrUserNotFound):
		return appErrors.ErrNotFound
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}
