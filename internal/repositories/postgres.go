package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/popcornpicks/backend/internal/db"
	"github.com/popcornpicks/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. A duplicate username yields ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, password_hash, created_at)
        VALUES ($1, $2, $3, $4)
    `, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByUsername fetches a user by their exact, case-sensitive username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, username, password_hash, created_at
        FROM users
        WHERE username = $1
    `, username)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by username: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// PostgresWatchlistRepository provides PostgreSQL-backed persistence for watchlists.
type PostgresWatchlistRepository struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresWatchlistRepository constructs a watchlist repository backed by PostgreSQL.
func NewPostgresWatchlistRepository(pool db.Pool) *PostgresWatchlistRepository {
	return &PostgresWatchlistRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Add inserts a watchlist entry. The (user_id, movie_id) unique constraint is the
// only duplicate guard; a violation is reported as ErrConflict.
func (r *PostgresWatchlistRepository) Add(ctx context.Context, entry models.WatchlistEntry) (models.WatchlistEntry, error) {
	if strings.TrimSpace(entry.UserID) == "" || strings.TrimSpace(entry.MovieID) == "" || strings.TrimSpace(entry.MovieTitle) == "" {
		return models.WatchlistEntry{}, ErrInvalidInput
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        INSERT INTO watchlist (id, user_id, movie_id, movie_title, movie_poster, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, user_id, movie_id, movie_title, movie_poster, created_at
    `, entry.ID, entry.UserID, entry.MovieID, entry.MovieTitle, entry.MoviePoster, entry.CreatedAt)

	saved, err := scanWatchlistEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return models.WatchlistEntry{}, ErrConflict
			case pgForeignKeyViolation:
				return models.WatchlistEntry{}, ErrNotFound
			}
		}
		return models.WatchlistEntry{}, fmt.Errorf("insert watchlist entry: %w", err)
	}

	return saved, nil
}

// List returns the user's watchlist, newest first.
func (r *PostgresWatchlistRepository) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, movie_id, movie_title, movie_poster, created_at
        FROM watchlist
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	entries := make([]models.WatchlistEntry, 0)
	for rows.Next() {
		entry, err := scanWatchlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}

	return entries, nil
}

// Remove deletes a single entry and returns it, or ErrNotFound when nothing matched.
func (r *PostgresWatchlistRepository) Remove(ctx context.Context, userID, movieID string) (models.WatchlistEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        DELETE FROM watchlist
        WHERE user_id = $1 AND movie_id = $2
        RETURNING id, user_id, movie_id, movie_title, movie_poster, created_at
    `, userID, movieID)

	entry, err := scanWatchlistEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.WatchlistEntry{}, ErrNotFound
		}
		return models.WatchlistEntry{}, fmt.Errorf("delete watchlist entry: %w", err)
	}

	return entry, nil
}

// Exists reports whether the user has saved the movie.
func (r *PostgresWatchlistRepository) Exists(ctx context.Context, userID, movieID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM watchlist WHERE user_id = $1 AND movie_id = $2
        )
    `, userID, movieID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check watchlist entry: %w", err)
	}

	return exists, nil
}

func scanWatchlistEntry(row pgx.Row) (models.WatchlistEntry, error) {
	var entry models.WatchlistEntry
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.MovieID, &entry.MovieTitle, &entry.MoviePoster, &entry.CreatedAt); err != nil {
		return models.WatchlistEntry{}, err
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return entry, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ WatchlistRepository = (*PostgresWatchlistRepository)(nil)
