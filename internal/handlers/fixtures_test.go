package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/popcornpicks/backend/internal/auth"
	"github.com/popcornpicks/backend/internal/models"
	"github.com/popcornpicks/backend/internal/repositories"
)

const testSecret = "handler-test-secret"

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return repositories.ErrConflict
	}
	s.users[user.Username] = user
	return nil
}

func (s *inMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

type inMemoryWatchlist struct {
	mu      sync.Mutex
	entries []models.WatchlistEntry
	seq     int
	now     time.Time
}

func newInMemoryWatchlist() *inMemoryWatchlist {
	return &inMemoryWatchlist{now: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *inMemoryWatchlist) Add(_ context.Context, entry models.WatchlistEntry) (models.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.UserID == entry.UserID && e.MovieID == entry.MovieID {
			return models.WatchlistEntry{}, repositories.ErrConflict
		}
	}
	s.seq++
	s.now = s.now.Add(time.Minute)
	entry.ID = fmt.Sprintf("entry-%d", s.seq)
	entry.CreatedAt = s.now
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *inMemoryWatchlist) List(_ context.Context, userID string) ([]models.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.WatchlistEntry{}
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *inMemoryWatchlist) Remove(_ context.Context, userID, movieID string) (models.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.UserID == userID && e.MovieID == movieID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return e, nil
		}
	}
	return models.WatchlistEntry{}, repositories.ErrNotFound
}

func (s *inMemoryWatchlist) Exists(_ context.Context, userID, movieID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.UserID == userID && e.MovieID == movieID {
			return true, nil
		}
	}
	return false, nil
}

type testServer struct {
	handler   http.Handler
	users     *inMemoryUserStore
	watchlist *inMemoryWatchlist
	tokens    *auth.TokenManager
}

func newTestServer(t *testing.T, deps Dependencies) *testServer {
	t.Helper()
	users := newInMemoryUserStore()
	watchlist := newInMemoryWatchlist()
	tokens := auth.NewTokenManager(testSecret, time.Hour)

	if deps.Credentials == nil {
		deps.Credentials = auth.NewCredentials(users, bcrypt.MinCost)
	}
	if deps.Tokens == nil {
		deps.Tokens = tokens
	}
	if deps.Watchlist == nil {
		deps.Watchlist = watchlist
	}

	return &testServer{
		handler:   NewRouter(deps, nil),
		users:     users,
		watchlist: watchlist,
		tokens:    tokens,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d got %d (body %s)", status, rec.Code, rec.Body.String())
	}
	if got := decodeBody[errorResponse](t, rec).Error; got != message {
		t.Fatalf("expected error %q got %q", message, got)
	}
}
