package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/database/mock"
)

func TestAuthHandler_Signup(t *testing.T) {
	users := mock.NewMockUserStore()
	handler := &AuthHandler{users: users}

	req := jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"name":  "Asha",
		"email": " asha@example.com ",
	})
	recorder := httptest.NewRecorder()
	handler.Signup(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		User database.User `json:"user"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.User.ID == "" {
		t.Error("expected generated user ID")
	}
	if result.User.Role != "user" {
		t.Errorf("expected default role 'user', got '%s'", result.User.Role)
	}
	if result.User.Email != "asha@example.com" {
		t.Errorf("expected trimmed email, got '%s'", result.User.Email)
	}
	if len(users.Users()) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(users.Users()))
	}
}

func TestAuthHandler_Signup_RequiresEmail(t *testing.T) {
	handler := &AuthHandler{users: mock.NewMockUserStore()}

	recorder := httptest.NewRecorder()
	handler.Signup(recorder, jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{"name": "x"}))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "email required")
}

func TestAuthHandler_Signup_StoreError(t *testing.T) {
	users := mock.NewMockUserStore()
	users.CreateError = errors.New("db down")
	handler := &AuthHandler{users: users}

	recorder := httptest.NewRecorder()
	handler.Signup(recorder, jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{"email": "a@b.c"}))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
}

func TestAuthHandler_Login(t *testing.T) {
	users := mock.NewMockUserStore()
	users.AddUser(database.User{ID: "u1", Email: "asha@example.com", Role: "user"})
	users.AddUser(database.User{ID: "u2", Email: "asha@example.com", Role: "provider"})
	handler := &AuthHandler{users: users}

	recorder := httptest.NewRecorder()
	handler.Login(recorder, jsonRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "asha@example.com"}))

	assertStatusCode(t, recorder, http.StatusOK)

	var result LoginResponse
	parseJSONResponse(t, recorder, &result)
	if result.User == nil || result.User.ID != "u1" {
		t.Fatalf("expected earliest user u1, got %+v", result.User)
	}
	if result.Token != "demo_token_u1" {
		t.Errorf("expected token demo_token_u1, got %s", result.Token)
	}
}

func TestAuthHandler_Login_UnknownEmail(t *testing.T) {
	handler := &AuthHandler{users: mock.NewMockUserStore()}

	for _, email := range []string{"nobody@example.com", ""} {
		recorder := httptest.NewRecorder()
		handler.Login(recorder, jsonRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: email}))

		assertStatusCode(t, recorder, http.StatusUnauthorized)
		assertJSONError(t, recorder, "Invalid credentials")
	}
}

func TestAuthHandler_NoStorage(t *testing.T) {
	handler := &AuthHandler{}

	recorder := httptest.NewRecorder()
	handler.Login(recorder, jsonRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "a@b.c"}))

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	assertJSONError(t, recorder, errStorageUnavailable)
}
