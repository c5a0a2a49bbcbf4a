package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocalStorePutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "pdfs"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	payload := []byte("%PDF-1.7 hello")

	if err := store.Put(ctx, "paper_1.pdf", bytes.NewReader(payload), int64(len(payload))); err != nil {
		t.Fatalf("put: %v", err)
	}

	obj, err := store.Open(ctx, "paper_1.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, err := io.ReadAll(obj.Body)
	obj.Body.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) || obj.Size != int64(len(payload)) {
		t.Fatalf("unexpected content %q (size %d)", got, obj.Size)
	}

	if err := store.Delete(ctx, "paper_1.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, "paper_1.pdf"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Delete(ctx, "paper_1.pdf"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected not found deleting twice, got %v", err)
	}
}

type failingReader struct{ after int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after <= 0 {
		return 0, errors.New("connection reset")
	}
	n := copy(p, bytes.Repeat([]byte("x"), r.after))
	r.after -= n
	return n, nil
}

func TestLocalStoreFailedPutLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	err = store.Put(context.Background(), "paper_2.pdf", &failingReader{after: 16}, 1024)
	if err == nil {
		t.Fatalf("expected put to fail")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir after failed put, found %d entries", len(entries))
	}
}

func TestLocalStoreShortWriteRejected(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	err = store.Put(context.Background(), "paper_3.pdf", strings.NewReader("abc"), 10)
	if err == nil {
		t.Fatalf("expected size mismatch to fail")
	}
	if _, err := store.Open(context.Background(), "paper_3.pdf"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("short write must not become visible, got %v", err)
	}
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "..", "../escape.pdf", "a/b.pdf", `a\b.pdf`} {
		if err := store.Put(context.Background(), key, strings.NewReader("x"), 1); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestNewKeyIsUniqueAndDescriptive(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	a := NewKey(42, at)
	b := NewKey(42, at)
	if a == b {
		t.Fatalf("keys generated in the same second must differ")
	}
	if !strings.HasPrefix(a, "paper_42_20240506070809_") || !strings.HasSuffix(a, ".pdf") {
		t.Fatalf("unexpected key format %q", a)
	}
	if err := validateKey(a); err != nil {
		t.Fatalf("generated key should be valid: %v", err)
	}
}
