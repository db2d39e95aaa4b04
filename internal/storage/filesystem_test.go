package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWriteRead(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "./batch-1//endorsement-01.png", []byte("img"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if key != "batch-1/endorsement-01.png" {
		t.Fatalf("unexpected key %q", key)
	}
	onDisk, err := os.ReadFile(filepath.Join(store.BasePath(), "batch-1", "endorsement-01.png"))
	if err != nil || string(onDisk) != "img" {
		t.Fatalf("file not written: %v %q", err, onDisk)
	}
	data, err := store.Read(ctx, key)
	if err != nil || string(data) != "img" {
		t.Fatalf("Read = %q, %v", data, err)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "a/b.png", want: "a/b.png"},
		{key: "/abs/c.png", want: "abs/c.png"},
		{key: `win\d.png`, want: "win/d.png"},
		{key: "a/../b.png", want: "b.png"},
		{key: "../escape.png", wantErr: true},
		{key: "a/../../escape.png", wantErr: true},
		{key: "..", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Fatalf("expected ErrInvalidKey, got %q %v", got, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.key, got, err, tc.want)
			}
		})
	}
}

func TestFileStoreHonoursContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "x.png", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore(" "); err == nil {
		t.Fatal("expected error for empty base path")
	}
}
