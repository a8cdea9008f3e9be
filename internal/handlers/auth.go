package handlers

import (
	"errors"
	"net/http"

	"github.com/popcornpicks/backend/internal/auth"
	"github.com/popcornpicks/backend/internal/logging"
	"github.com/popcornpicks/backend/internal/models"
	"github.com/popcornpicks/backend/internal/validation"
)

// AuthHandler implements registration and login.
type AuthHandler struct {
	Credentials CredentialService
	Tokens      TokenIssuer
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

// Register handles POST /api/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Credentials == nil || h.Tokens == nil {
		logger.Error("authentication dependencies unavailable", "hasCredentials", h.Credentials != nil, "hasTokens", h.Tokens != nil)
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if err := validation.Struct(req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.Credentials.Register(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			respondError(ctx, w, http.StatusBadRequest, "Password must be at least 6 characters long")
		case errors.Is(err, auth.ErrDuplicateUser):
			respondError(ctx, w, http.StatusBadRequest, "Username already exists")
		default:
			logger.Error("register user failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	token, _, err := h.Tokens.Issue(user)
	if err != nil {
		logger.Error("issue token after registration", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return
	}

	logger.Info("user registered", "userId", user.ID)
	respondJSON(ctx, w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user.Public(),
	})
}

// Login handles POST /api/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Credentials == nil || h.Tokens == nil {
		logger.Error("authentication dependencies unavailable", "hasCredentials", h.Credentials != nil, "hasTokens", h.Tokens != nil)
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if err := validation.Struct(req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.Credentials.Verify(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(ctx, w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logger.Error("login lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return
	}

	token, _, err := h.Tokens.Issue(user)
	if err != nil {
		logger.Error("issue token after login", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    user.Public(),
	})
}
