package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	// ErrArchiveClosed is returned by Enqueue after Shutdown.
	ErrArchiveClosed = errors.New("model output archive closed")
	// ErrQueueFull is returned when the archive cannot accept more records.
	ErrQueueFull = errors.New("model output archive queue full")
)

const (
	defaultPrefix = "model-output"
	uploadTimeout = 30 * time.Second
)

// Record is a model answer that could not be parsed.
type Record struct {
	ID         string    `json:"id"`
	UserInput  string    `json:"user_input"`
	RawOutput  string    `json:"raw_output"`
	ParseError string    `json:"parse_error"`
	CreatedAt  time.Time `json:"created_at"`
}

// ObjectStorage persists objects and returns their location.
type ObjectStorage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
}

// Config controls the concurrency characteristics of the archive.
type Config struct {
	QueueSize int
	Workers   int
	Prefix    string
}

// Archive asynchronously writes records to object storage.
type Archive struct {
	storage ObjectStorage
	prefix  string
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan Record
	wg     sync.WaitGroup
	once   sync.Once
}

// New starts the worker pool.
func New(storage ObjectStorage, cfg Config, logger *slog.Logger) *Archive {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Archive{
		storage: storage,
		prefix:  cfg.Prefix,
		logger:  logger,
		jobs:    make(chan Record, cfg.QueueSize),
	}

	a.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go a.worker()
	}

	return a
}

// Enqueue schedules rec for upload without waiting for a free slot.
func (a *Archive) Enqueue(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrArchiveClosed
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	select {
	case a.jobs <- rec:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops intake and waits for queued records to be written.
func (a *Archive) Shutdown(ctx context.Context) error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.jobs)
		a.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Key returns the object key for rec.
func (a *Archive) Key(rec Record) string {
	day := rec.CreatedAt.UTC()
	return path.Join(a.prefix, day.Format("2006"), day.Format("01"), day.Format("02"), rec.ID+".json")
}

func (a *Archive) worker() {
	defer a.wg.Done()

	for rec := range a.jobs {
		a.handle(rec)
	}
}

func (a *Archive) handle(rec Record) {
	if a.storage == nil {
		a.logger.Error("model output archive missing storage", "recordId", rec.ID)
		return
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		a.logger.Error("encode archive record", "recordId", rec.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	key := a.Key(rec)
	location, err := a.storage.Save(ctx, key, bytes.NewReader(payload))
	if err != nil {
		a.logger.Error("archive model output", "recordId", rec.ID, "key", key, "error", fmt.Errorf("save: %w", err))
		return
	}
	a.logger.Info("archived model output", "recordId", rec.ID, "location", location)
}
