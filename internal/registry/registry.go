// Package registry хранит метаданные сессий загрузки и битмапу полученных
// чанков. Битмапа — единственный источник прогресса: процент всегда
// пересчитывается по числу установленных бит, отдельные счётчики не ведутся.
// Установка бита обязана быть атомарной относительно конкурентных установок
// других бит той же сессии.
package registry

import (
	"context"

	"github.com/sir_venger/upload_lite/internal/models"
)

// Registry — хранилище сессий загрузки.
type Registry interface {
	// Create заводит запись сессии: status=pending, пустая битмапа.
	Create(ctx context.Context, sessionID, ownerID string, totalChunks int) error
	// MarkChunkReceived атомарно устанавливает один бит. Повторная установка — no-op.
	MarkChunkReceived(ctx context.Context, sessionID string, chunkIndex int) error
	// Progress возвращает снимок готовности, пересчитанный по битмапе.
	Progress(ctx context.Context, sessionID string) (models.Progress, error)
	// IsComplete — установлены ли все биты.
	IsComplete(ctx context.Context, sessionID string) (bool, error)
	// FirstMissing возвращает наименьший индекс неполученного чанка либо -1.
	FirstMissing(ctx context.Context, sessionID string) (int, error)
	// Owner возвращает владельца сессии, зафиксированного при создании.
	Owner(ctx context.Context, sessionID string) (string, error)
	// Transition меняет статус, допуская только легальные переходы.
	Transition(ctx context.Context, sessionID string, newStatus models.UploadStatus) error
	// Delete удаляет запись; дальнейшие обращения по id дают ErrNotFound.
	Delete(ctx context.Context, sessionID string) error
	// Close освобождает ресурсы подключения.
	Close()
}

func validateCreate(sessionID string, totalChunks int) error {
	if sessionID == "" {
		return models.ErrInvalidArgument
	}
	if totalChunks <= 0 {
		return models.ErrInvalidArgument
	}
	return nil
}
