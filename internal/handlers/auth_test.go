package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAuthHandlerRegister(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	rec := srv.do(t, http.MethodPost, "/api/register", "", credentialsRequest{Username: "alice", Password: "password1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	resp := decodeBody[authResponse](t, rec)
	if resp.Message != "User registered successfully" || resp.Token == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.User.Username != "alice" || resp.User.ID == "" || resp.User.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatal("response must not leak password material")
	}

	claims, err := srv.tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	stored, err := srv.users.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password1")) != nil {
		t.Fatal("stored password is not hashed")
	}
}

func TestAuthHandlerRegisterValidation(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	if rec := srv.do(t, http.MethodPost, "/api/register", "", credentialsRequest{Username: "alice", Password: "password1"}); rec.Code != http.StatusCreated {
		t.Fatalf("seed registration failed: %d", rec.Code)
	}

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"missing password", credentialsRequest{Username: "bob"}, http.StatusBadRequest, "Username and password are required"},
		{"missing username", credentialsRequest{Password: "password1"}, http.StatusBadRequest, "Username and password are required"},
		{"short password", credentialsRequest{Username: "bob", Password: "12345"}, http.StatusBadRequest, "Password must be at least 6 characters long"},
		{"duplicate", credentialsRequest{Username: "alice", Password: "another1"}, http.StatusBadRequest, "Username already exists"},
		{"malformed json", `{"username":`, http.StatusBadRequest, msgInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/register", "", tt.body)
			expectError(t, rec, tt.status, tt.message)
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	srv.do(t, http.MethodPost, "/api/register", "", credentialsRequest{Username: "alice", Password: "password1"})

	rec := srv.do(t, http.MethodPost, "/api/login", "", credentialsRequest{Username: "alice", Password: "password1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	resp := decodeBody[authResponse](t, rec)
	if resp.Message != "Login successful" || resp.Token == "" || resp.User.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	wrongPassword := srv.do(t, http.MethodPost, "/api/login", "", credentialsRequest{Username: "alice", Password: "wrong-pass"})
	unknownUser := srv.do(t, http.MethodPost, "/api/login", "", credentialsRequest{Username: "mallory", Password: "password1"})
	expectError(t, wrongPassword, http.StatusUnauthorized, "Invalid credentials")
	expectError(t, unknownUser, http.StatusUnauthorized, "Invalid credentials")

	expectError(t, srv.do(t, http.MethodPost, "/api/login", "", credentialsRequest{Username: "alice"}),
		http.StatusBadRequest, "Username and password are required")
}

func TestAuthHandlerUsernamesAreCaseSensitive(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	srv.do(t, http.MethodPost, "/api/register", "", credentialsRequest{Username: "alice", Password: "password1"})

	rec := srv.do(t, http.MethodPost, "/api/login", "", credentialsRequest{Username: "Alice", Password: "password1"})
	expectError(t, rec, http.StatusUnauthorized, "Invalid credentials")
}

func TestAuthHandlerMissingDependencies(t *testing.T) {
	handler := NewRouter(Dependencies{}, nil)
	srv := &testServer{handler: handler}

	rec := srv.do(t, http.MethodPost, "/api/register", "", credentialsRequest{Username: "alice", Password: "password1"})
	expectError(t, rec, http.StatusInternalServerError, msgInternalError)
}

func TestAuthHandlerRegisterLongPassword(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	password := strings.Repeat("p", 100)

	if rec := srv.do(t, http.MethodPost, "/api/register", "", credentialsRequest{Username: "carol", Password: password}); rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if rec := srv.do(t, http.MethodPost, "/api/login", "", credentialsRequest{Username: "carol", Password: password}); rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
}
