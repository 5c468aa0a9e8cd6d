package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sir_venger/upload_lite/internal/mimetype"
	"github.com/sir_venger/upload_lite/internal/models"
)

// assemble склеивает чанки 0..total-1 строго по возрастанию индексов в один
// файл. Запись идёт во временный файл рядом с целевым; видимый путь получает
// данные единственным rename после успешной записи всех чанков, поэтому
// частично собранный файл никогда не виден, а повторная сборка детерминированно
// перезаписывает результат.
func (s *Uploads) assemble(ctx context.Context, sessionID, fileName string, total int, owner string) (models.AssembledFile, error) {
	layout, err := s.fileLayout(owner, sessionID, fileName)
	if err != nil {
		return models.AssembledFile{}, err
	}
	if err := os.MkdirAll(layout.originalDir, 0o755); err != nil {
		return models.AssembledFile{}, err
	}
	if err := os.MkdirAll(layout.thumbnailDir, 0o755); err != nil {
		return models.AssembledFile{}, err
	}

	tmp := layout.finalPath + ".part"
	if err := s.writeOrdered(ctx, tmp, sessionID, total); err != nil {
		_ = os.Remove(tmp)
		return models.AssembledFile{}, err
	}
	if err := os.Rename(tmp, layout.finalPath); err != nil {
		_ = os.Remove(tmp)
		return models.AssembledFile{}, err
	}

	info, err := os.Stat(layout.finalPath)
	if err != nil {
		return models.AssembledFile{}, err
	}
	mimeType := mimetype.ByName(fileName)

	// Превью — best effort: его отсутствие не делает сборку неуспешной.
	thumbURL := ""
	if ok, terr := s.Thumbs.Generate(layout.finalPath, layout.thumbnailPath, mimeType); terr != nil {
		log.Printf("thumbnail for %s: %v", sessionID, terr)
	} else if ok {
		thumbURL = layout.thumbnailURL
	}

	if err := s.Chunks.Purge(ctx, sessionID); err != nil {
		return models.AssembledFile{}, err
	}

	now := time.Now()
	return models.AssembledFile{
		ID:           sessionID,
		Name:         fileName,
		Size:         info.Size(),
		MimeType:     mimeType,
		CreatedAt:    now,
		UpdatedAt:    now,
		URL:          layout.finalURL,
		ThumbnailURL: thumbURL,
		OwnerID:      owner,
	}, nil
}

// writeOrdered переливает чанки во временный файл в порядке индексов и
// сбрасывает его на диск. Порядок — ключевой инвариант корректности.
func (s *Uploads) writeOrdered(ctx context.Context, path, sessionID string, total int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	for idx := 0; idx < total; idx++ {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return err
		}

		rc, err := s.Chunks.Open(ctx, sessionID, idx)
		if err != nil {
			_ = f.Close()
			if errors.Is(err, models.ErrMissingChunk) {
				// Ленивая проверка: чанк исчез между check и сборкой.
				return &models.IncompleteUploadError{MissingIndex: idx}
			}
			return fmt.Errorf("open chunk %d: %w", idx, err)
		}

		_, err = io.Copy(f, rc)
		if cerr := rc.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("copy chunk %d: %w", idx, err)
		}
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
