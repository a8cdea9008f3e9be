package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornpicks/backend/internal/auth"
	"github.com/popcornpicks/backend/internal/models"
)

const testSecret = "test-secret-key-32-chars-minimum"

func TestTokenManager_IssueAndVerify(t *testing.T) {
	mgr := auth.NewTokenManager(testSecret, time.Hour)

	token, expiresAt, err := mgr.Issue(models.User{ID: "user-1", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "token should have three segments")
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotNil(t, claims.IssuedAt)
}

func TestTokenManager_IssueRequiresUserID(t *testing.T) {
	mgr := auth.NewTokenManager(testSecret, time.Hour)

	_, _, err := mgr.Issue(models.User{Username: "alice"})
	assert.Error(t, err)
}

func TestTokenManager_AcceptedUntilExpiry(t *testing.T) {
	issuedAt := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	current := issuedAt
	mgr := auth.NewTokenManager(testSecret, time.Hour).WithNowFunc(func() time.Time { return current })

	token, expiresAt, err := mgr.Issue(models.User{ID: "user-1", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), expiresAt)

	current = issuedAt.Add(59 * time.Minute)
	_, err = mgr.Verify(token)
	require.NoError(t, err, "token should be valid before expiry")

	current = expiresAt.Add(time.Second)
	_, err = mgr.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenManager_VerifyFailures(t *testing.T) {
	mgr := auth.NewTokenManager(testSecret, time.Hour)
	other := auth.NewTokenManager("secret-key-two-32-chars-minimum2", time.Hour)

	foreign, _, err := other.Issue(models.User{ID: "user-1", Username: "alice"})
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", auth.ErrTokenMissing},
		{"whitespace", "   ", auth.ErrTokenMissing},
		{"garbage", "not-a-token", auth.ErrTokenInvalid},
		{"wrong secret", foreign, auth.ErrTokenInvalid},
		{"alg none", unsigned, auth.ErrTokenInvalid},
		{"bad signature", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature", auth.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.Verify(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTokenManagerPanicsOnEmptySecret(t *testing.T) {
	assert.Panics(t, func() { auth.NewTokenManager("", time.Hour) })
}
