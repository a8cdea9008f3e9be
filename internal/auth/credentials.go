package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/popcornpicks/backend/internal/models"
	"github.com/popcornpicks/backend/internal/repositories"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// maxBcryptInput is the number of password bytes bcrypt consumes; longer
// passwords are truncated to it on both registration and verification.
const maxBcryptInput = 72

var (
	// ErrDuplicateUser indicates the username is already registered.
	ErrDuplicateUser = errors.New("username already exists")
	// ErrWeakPassword indicates the password is shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("password too short")
	// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore captures the persistence operations needed by Credentials.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// Credentials registers users and verifies their passwords.
type Credentials struct {
	users UserStore
	cost  int
	now   func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewCredentials constructs a credential service hashing with the given bcrypt cost.
func NewCredentials(users UserStore, cost int) *Credentials {
	if users == nil {
		panic("auth: user store must not be nil")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Credentials{
		users: users,
		cost:  cost,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with a bcrypt hash of password.
func (c *Credentials) Register(ctx context.Context, username, password string) (models.User, error) {
	if len(password) < MinPasswordLength {
		return models.User{}, ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(password), c.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hashed),
		CreatedAt:    c.now(),
	}

	if err := c.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Verify returns the user when password matches the stored hash.
func (c *Credentials) Verify(ctx context.Context, username, password string) (models.User, error) {
	user, err := c.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Burn a comparison so unknown usernames cost the same as wrong passwords.
			_ = bcrypt.CompareHashAndPassword(c.dummy(), bcryptInput(password))
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), bcryptInput(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

func (c *Credentials) dummy() []byte {
	c.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("popcornpicks-dummy-password"), c.cost)
		if err == nil {
			c.dummyHash = hash
		}
	})
	return c.dummyHash
}

func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > maxBcryptInput {
		b = b[:maxBcryptInput]
	}
	return b
}
