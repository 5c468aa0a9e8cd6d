package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sir_venger/upload_lite/internal/models"
)

// ReceiveChunk пишет чанк в стейджинг и отмечает его бит в реестре.
// Порядок прихода чанков не гарантирован; порядок склейки обеспечивает
// только сборщик.
func (s *Uploads) ReceiveChunk(ctx context.Context, sessionID string, chunkIndex, totalChunks int, r io.Reader) (models.Progress, error) {
	before, err := s.Registry.Progress(ctx, sessionID)
	if err != nil {
		return models.Progress{}, err
	}
	if totalChunks != before.TotalChunks {
		return models.Progress{}, fmt.Errorf("%w: declared total %d, session expects %d",
			models.ErrInvalidArgument, totalChunks, before.TotalChunks)
	}
	if chunkIndex < 0 || chunkIndex >= before.TotalChunks {
		return models.Progress{}, models.ErrOutOfRange
	}

	if _, err := s.Chunks.Put(ctx, sessionID, chunkIndex, r); err != nil {
		return models.Progress{}, err
	}

	if err := s.Registry.MarkChunkReceived(ctx, sessionID, chunkIndex); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Сессию отменили, пока чанк писался на диск. Запись не должна
			// воскресить сессию — подчищаем то, что только что записали.
			_ = s.Chunks.Purge(ctx, sessionID)
		}
		return models.Progress{}, err
	}

	if before.Status == models.StatusPending {
		// Первый чанк переводит pending → uploading. Проигранная гонка с
		// соседним чанком отдаёт ErrIllegalState — это не ошибка.
		if terr := s.Registry.Transition(ctx, sessionID, models.StatusUploading); terr != nil && !errors.Is(terr, models.ErrIllegalState) {
			return models.Progress{}, terr
		}
	}

	return s.Registry.Progress(ctx, sessionID)
}

// Status возвращает текущий снимок готовности сессии.
func (s *Uploads) Status(ctx context.Context, sessionID string) (models.Progress, error) {
	return s.Registry.Progress(ctx, sessionID)
}
