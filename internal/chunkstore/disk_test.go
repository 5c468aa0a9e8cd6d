package chunkstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sir_venger/upload_lite/internal/models"
)

func newStore(t *testing.T) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func readChunk(t *testing.T, s *DiskStore, sessionID string, idx int) []byte {
	t.Helper()
	rc, err := s.Open(context.Background(), sessionID, idx)
	if err != nil {
		t.Fatalf("open chunk %d: %v", idx, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDiskStore_PutOpenRoundtrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	n, err := s.Put(ctx, "sess", 0, strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("want 5 bytes written, got %d", n)
	}
	if got := readChunk(t, s, "sess", 0); !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("roundtrip mismatch: %q", got)
	}
}

func TestDiskStore_LastWriteWins(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// Ретрай клиента может переслать чанк с теми же или другими байтами.
	if _, err := s.Put(ctx, "sess", 1, strings.NewReader("first")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "sess", 1, strings.NewReader("second")); err != nil {
		t.Fatal(err)
	}
	if got := readChunk(t, s, "sess", 1); string(got) != "second" {
		t.Fatalf("want last write, got %q", got)
	}
}

func TestDiskStore_MissingChunk(t *testing.T) {
	s := newStore(t)

	_, err := s.Open(context.Background(), "sess", 7)
	if !errors.Is(err, models.ErrMissingChunk) {
		t.Fatalf("want ErrMissingChunk, got %v", err)
	}
}

func TestDiskStore_PurgeIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, "sess", 0, strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Purge(ctx, "sess"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "sess")); !os.IsNotExist(err) {
		t.Fatal("session dir survived purge")
	}
	// Повторная очистка пустой сессии не ошибка.
	if err := s.Purge(ctx, "sess"); err != nil {
		t.Fatal(err)
	}
}

func TestDiskStore_RejectsPathTraversal(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if _, err := s.Put(ctx, id, 0, strings.NewReader("x")); !errors.Is(err, models.ErrInvalidArgument) {
			t.Fatalf("id %q: want ErrInvalidArgument, got %v", id, err)
		}
	}
	if _, err := s.Put(ctx, "sess", -1, strings.NewReader("x")); !errors.Is(err, models.ErrOutOfRange) {
		t.Fatal("negative index accepted")
	}
}
