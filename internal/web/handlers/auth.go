package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/servicehub/internal/database"
)

// AuthHandler handles signup and demo login.
type AuthHandler struct {
	users database.UserWriter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler() *AuthHandler {
	h := &AuthHandler{}
	if users, err := database.GetUserWriter(context.Background()); err == nil {
		h.users = users
	}
	return h
}

// SignupRequest represents a signup request
type SignupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	User  *database.User `json:"user"`
	Token string         `json:"token"`
}

// Signup registers a new user.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h.users == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	user := &database.User{
		ID:        newID(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
		CreatedAt: nowUTC(),
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		log.Printf("Signup: failed to create user %s: %v", sanitizeForLog(req.Email), err)
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Login looks the user up by email. Passwords are not verified; the token is a demo token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.users == nil {
		respondError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		log.Printf("Login: lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if user == nil || req.Email == "" {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		User:  user,
		Token: "demo_token_" + user.ID,
	})
}
