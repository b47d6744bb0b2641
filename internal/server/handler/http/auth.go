// Package http provides the HTTP handlers and router of the Workboard API.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/Workboard/internal/middleware"
	"github.com/atinyakov/Workboard/internal/models"
	"go.uber.org/zap"
)

// AuthService defines the authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Signup registers a new account and signs it in.
	Signup(ctx context.Context, data models.SignupData) (*models.AuthData, error)
	// Login exchanges credentials for a new token.
	Login(ctx context.Context, creds models.LoginCredentials) (*models.AuthData, error)
	// Profile returns the user with the given id.
	Profile(ctx context.Context, userID string) (*models.User, error)
	// Authenticate resolves a bearer token to a user id.
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthHandler handles HTTP requests for signup, login and the profile.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Log         *zap.Logger
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupData
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	auth, err := h.AuthService.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.Log, err, "User not found")
		return
	}
	writeData(w, http.StatusCreated, "Registration successful", *auth)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginCredentials
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	auth, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.Log, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, "Login successful", *auth)
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.Profile(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, "", models.UserData{User: *u})
}
