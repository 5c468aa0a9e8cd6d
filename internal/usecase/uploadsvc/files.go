package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/sir_venger/upload_lite/internal/mimetype"
	"github.com/sir_venger/upload_lite/internal/models"
)

// ListFiles возвращает метаданные собранных файлов владельца. Источник —
// сама файловая структура: по директории на файл, внутри original/ и
// thumbnail/.
func (s *Uploads) ListFiles(_ context.Context, ownerID string) ([]models.AssembledFile, error) {
	if !validToken(ownerID) {
		return nil, fmt.Errorf("%w: bad owner id", models.ErrInvalidArgument)
	}

	ownerDir := filepath.Join(s.FilesDir, ownerID)
	entries, err := os.ReadDir(ownerDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.AssembledFile{}, nil
		}
		return nil, err
	}

	out := make([]models.AssembledFile, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		fileID := e.Name()

		originals, err := os.ReadDir(filepath.Join(ownerDir, fileID, "original"))
		if err != nil {
			continue
		}
		for _, o := range originals {
			info, err := o.Info()
			if err != nil || o.IsDir() {
				continue
			}

			rec := models.AssembledFile{
				ID:        fileID,
				Name:      o.Name(),
				Size:      info.Size(),
				MimeType:  mimetype.ByName(o.Name()),
				CreatedAt: info.ModTime(),
				UpdatedAt: info.ModTime(),
				URL:       path.Join("/files", ownerID, fileID, "original", o.Name()),
				OwnerID:   ownerID,
			}
			if _, err := os.Stat(filepath.Join(ownerDir, fileID, "thumbnail", o.Name())); err == nil {
				rec.ThumbnailURL = path.Join("/files", ownerID, fileID, "thumbnail", o.Name())
			}
			out = append(out, rec)
		}
	}

	return out, nil
}

// DeleteFile удаляет собранный файл вместе с превью.
func (s *Uploads) DeleteFile(_ context.Context, ownerID, fileID string) error {
	if !validToken(ownerID) || !validToken(fileID) {
		return fmt.Errorf("%w: bad owner or file id", models.ErrInvalidArgument)
	}

	dir := filepath.Join(s.FilesDir, ownerID, fileID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.ErrNotFound
		}
		return err
	}
	return os.RemoveAll(dir)
}
