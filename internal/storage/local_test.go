package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"estatedesk/internal/domain"
)

func TestLocalStorePutOpenDelete(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	data := []byte("pretend png")
	if err := s.Put(ctx, "abc/photo-1.png", bytes.NewReader(data), int64(len(data)), "image/png"); err != nil {
		t.Fatal(err)
	}

	obj, err := s.Open(ctx, "abc/photo-1.png")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := io.ReadAll(obj.Body)
	_ = obj.Body.Close()
	if !bytes.Equal(got, data) || obj.ContentType != "image/png" {
		t.Fatalf("round trip mismatch: %q %s", got, obj.ContentType)
	}

	if err := s.Delete(ctx, "abc/photo-1.png"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "abc/photo-1.png"); err != nil {
		t.Fatalf("deleting a missing key should succeed, got %v", err)
	}
	if _, err := s.Open(ctx, "abc/photo-1.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	secret := filepath.Join(root, "secret.txt")
	if err := os.WriteFile(secret, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../secret.txt", "/etc/passwd", "a/../../secret.txt", "%2e%2e/secret.txt", `a\b`} {
		if err := s.Put(context.Background(), key, bytes.NewReader(nil), 0, ""); !errors.Is(err, ErrBadKey) {
			t.Fatalf("put %q: want ErrBadKey, got %v", key, err)
		}
		if _, err := s.Open(context.Background(), key); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("open %q: want not found, got %v", key, err)
		}
	}
}

func TestLocalStoreDeletePrefix(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"l1/a.png", "l1/b.png", "l2/c.png"} {
		if err := s.Put(ctx, k, bytes.NewReader([]byte(k)), 0, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DeletePrefix(ctx, "l1"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "l1")); !os.IsNotExist(err) {
		t.Fatalf("prefix directory should be gone")
	}
	if _, err := s.Open(ctx, "l2/c.png"); err != nil {
		t.Fatalf("other listing's files must survive: %v", err)
	}
}
