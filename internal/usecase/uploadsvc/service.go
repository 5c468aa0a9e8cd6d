// Package uploadsvc — движок чанк-аплоада: жизненный цикл сессии
// (initiate → чанки → finalize/cancel), контроль состояния и сборка
// итогового файла в строгом порядке индексов.
package uploadsvc

import (
	"context"
	"io"

	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/registry"
	"github.com/sir_venger/upload_lite/internal/thumbnail"
)

type (
	// Service объединяет операции над сессиями загрузки и собранными файлами.
	Service interface {
		Initiate(ctx context.Context, ownerID, fileName string, fileSize int64, mimeType string) (models.InitiateResult, error)
		ReceiveChunk(ctx context.Context, sessionID string, chunkIndex, totalChunks int, r io.Reader) (models.Progress, error)
		Finalize(ctx context.Context, sessionID, fileName string) (models.AssembledFile, error)
		Cancel(ctx context.Context, sessionID string) error
		Status(ctx context.Context, sessionID string) (models.Progress, error)

		ListFiles(ctx context.Context, ownerID string) ([]models.AssembledFile, error)
		DeleteFile(ctx context.Context, ownerID, fileID string) error
	}
)

type Deps struct {
	Registry    registry.Registry
	Chunks      chunkstore.Store
	Thumbs      *thumbnail.Generator
	FilesDir    string
	ChunkSize   int64
	MaxFileSize int64
}

type Uploads struct {
	Deps

	// locks сериализует finalize/cancel по id сессии: проверка комплектности
	// и сборка не атомарны сами по себе.
	locks keyedLocks
}

// New конструирует сервис загрузки с заданными зависимостями.
func New(deps Deps) *Uploads {
	return &Uploads{Deps: deps}
}

var _ Service = (*Uploads)(nil)
