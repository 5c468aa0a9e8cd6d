package uploadsvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sir_venger/upload_lite/internal/models"
)

// Initiate открывает новую сессию: валидирует заявленный размер, считает
// план нарезки и создаёт запись в реестре со статусом pending.
func (s *Uploads) Initiate(ctx context.Context, ownerID, fileName string, fileSize int64, mimeType string) (models.InitiateResult, error) {
	if !validToken(ownerID) {
		return models.InitiateResult{}, fmt.Errorf("%w: bad owner id", models.ErrInvalidArgument)
	}
	if strings.TrimSpace(fileName) == "" {
		return models.InitiateResult{}, fmt.Errorf("%w: file name is required", models.ErrInvalidArgument)
	}
	if fileSize <= 0 {
		return models.InitiateResult{}, fmt.Errorf("%w: file size must be positive", models.ErrInvalidArgument)
	}
	if fileSize > s.MaxFileSize {
		return models.InitiateResult{}, models.ErrPayloadTooLarge
	}

	totalChunks := int((fileSize + s.ChunkSize - 1) / s.ChunkSize)
	sessionID := uuid.NewString()

	if err := s.Registry.Create(ctx, sessionID, ownerID, totalChunks); err != nil {
		return models.InitiateResult{}, err
	}

	return models.InitiateResult{
		SessionID:   sessionID,
		ChunkSize:   s.ChunkSize,
		TotalChunks: totalChunks,
	}, nil
}
