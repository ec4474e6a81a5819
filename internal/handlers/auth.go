package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/internal/auth"
	"github.com/zenjournal/zenjournal-backend/internal/metrics"
	"github.com/zenjournal/zenjournal-backend/internal/models"
	"github.com/zenjournal/zenjournal-backend/internal/services"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login and me.
type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	User    map[string]interface{} `json:"user"`
	Token   string                 `json:"token,omitempty"`
}

type AuthHandler struct {
	svc          *services.AuthService
	secureCookie bool
}

// NewAuthHandler builds the auth endpoints. secureCookie is set in production.
func NewAuthHandler(svc *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.svc.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		metrics.AuthEvent("register", "failure")
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			writeServiceError(w, r, err)
		case errors.Is(err, models.ErrConflict):
			writeMessage(w, http.StatusBadRequest, "User already exists")
		default:
			log.Error().Stack().Err(err).Msg("register failed")
			writeMessage(w, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}

	metrics.AuthEvent("register", "success")
	auth.SetSessionCookie(w, sess.Token, h.svc.Issuer().TTL(), h.secureCookie)
	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "User created successfully",
		User:    sess.User.Public(),
		Token:   sess.Token,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		metrics.AuthEvent("login", "failure")
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Error().Stack().Err(err).Msg("login failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	metrics.AuthEvent("login", "success")
	auth.SetSessionCookie(w, sess.Token, h.svc.Issuer().TTL(), h.secureCookie)
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    sess.User.Public(),
		Token:   sess.Token,
	})
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.svc.Logout(ctx, claims); err != nil {
			log.Warn().Err(err).Str("user_id", claims.UserID()).Msg("token revocation failed")
		}
	}
	metrics.AuthEvent("logout", "success")
	auth.ClearSessionCookie(w, h.secureCookie)
	writeMessage(w, http.StatusOK, "Logged out")
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, AuthResponse{Success: false, User: nil})
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: claims.Public()})
}
