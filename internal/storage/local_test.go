package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.bin")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLocalStorage_UploadExistsDelete(t *testing.T) {
	base := t.TempDir()
	storage, err := NewLocalStorage(base)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	srcPath := writeTemp(t, "hello world")
	ctx := context.Background()

	objectPath := "2024/05/06/07/08/clickstream_data.parquet"
	exists, err := storage.Exists(ctx, objectPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected object to be absent before upload")
	}

	if err := storage.Upload(ctx, srcPath, objectPath); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	exists, err = storage.Exists(ctx, objectPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected object to exist")
	}

	stored, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(objectPath)))
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(stored) != "hello world" {
		t.Errorf("content mismatch: got %q", stored)
	}

	if err := storage.Delete(ctx, objectPath); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	exists, _ = storage.Exists(ctx, objectPath)
	if exists {
		t.Error("expected object to not exist after delete")
	}

	// Deleting again is a no-op
	if err := storage.Delete(ctx, objectPath); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestLocalStorage_UploadOverwrites(t *testing.T) {
	base := t.TempDir()
	storage, err := NewLocalStorage(base)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx := context.Background()

	for _, content := range []string{"first", "second"} {
		if err := storage.Upload(ctx, writeTemp(t, content), "k/data.parquet"); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
	}
	stored, err := os.ReadFile(filepath.Join(base, "k", "data.parquet"))
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(stored) != "second" {
		t.Errorf("expected last upload to win, got %q", stored)
	}
}

func TestLocalStorage_URI(t *testing.T) {
	base := t.TempDir()
	storage, err := NewLocalStorage(base)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	uri := storage.URI("2024/01/01/00/00/clickstream_data.parquet")
	if !strings.HasPrefix(uri, "file://") || !strings.HasSuffix(uri, "/2024/01/01/00/00/clickstream_data.parquet") {
		t.Errorf("unexpected URI %q", uri)
	}
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := storage.Upload(ctx, writeTemp(t, "x"), "obj"); err == nil {
		t.Error("expected error for canceled context")
	}
	if _, err := storage.Exists(ctx, "obj"); err == nil {
		t.Error("expected Exists error for canceled context")
	}
}
