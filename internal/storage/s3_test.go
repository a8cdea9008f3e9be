package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/popcornpicks/backend/internal/config"
)

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestS3StorageRejectsEmptyKey(t *testing.T) {
	store, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{
		Bucket:   "archive",
		Region:   "us-east-1",
		Endpoint: "http://127.0.0.1:9000",
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	if _, err := store.Save(context.Background(), "/", strings.NewReader("{}")); err == nil {
		t.Fatal("expected error for empty key")
	}
}
