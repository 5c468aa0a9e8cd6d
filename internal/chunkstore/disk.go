package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sir_venger/upload_lite/internal/models"
)

const chunkFilenameFormat = "chunk-%d"

// DiskStore складывает чанки на локальный диск: по директории на сессию,
// файл chunk-<idx> на каждую часть.
type DiskStore struct {
	root string
}

// NewDiskStore создаёт стейджинг поверх каталога root.
func NewDiskStore(root string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("staging root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: root}, nil
}

var _ Store = (*DiskStore)(nil)

// Root возвращает корень стейджинга; нужен фоновому GC.
func (s *DiskStore) Root() string { return s.root }

// sessionDir валидирует id как непрозрачный токен до любых склеек путей.
func (s *DiskStore) sessionDir(sessionID string) (string, error) {
	if !validToken(sessionID) {
		return "", fmt.Errorf("%w: bad session id", models.ErrInvalidArgument)
	}
	return filepath.Join(s.root, sessionID), nil
}

func (s *DiskStore) chunkPath(sessionID string, chunkIndex int) (string, error) {
	if chunkIndex < 0 {
		return "", models.ErrOutOfRange
	}
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf(chunkFilenameFormat, chunkIndex)), nil
}

func (s *DiskStore) Put(_ context.Context, sessionID string, chunkIndex int, r io.Reader) (int64, error) {
	path, err := s.chunkPath(sessionID, chunkIndex)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}

	// os.Create обнуляет существующий файл: последняя запись побеждает.
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return n, nil
}

func (s *DiskStore) Open(_ context.Context, sessionID string, chunkIndex int) (io.ReadCloser, error) {
	path, err := s.chunkPath(sessionID, chunkIndex)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.ErrMissingChunk
		}
		return nil, err
	}
	return f, nil
}

func (s *DiskStore) Purge(_ context.Context, sessionID string) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	// RemoveAll не ругается на отсутствующую директорию.
	return os.RemoveAll(dir)
}

// validToken отсекает пустые значения, разделители путей и точки-переходы.
func validToken(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\")
}
