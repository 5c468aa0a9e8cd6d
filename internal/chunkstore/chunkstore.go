// Package chunkstore — durable staging-область для частей незавершённых
// загрузок. Части адресуются парой (sessionID, chunkIndex); повторная запись
// того же индекса молча заменяет предыдущие байты, что делает ретраи клиента
// безопасными.
package chunkstore

import (
	"context"
	"io"
)

// Store — хранилище staged-чанков.
type Store interface {
	// Put пишет (или перезаписывает) чанк и возвращает число записанных байт.
	Put(ctx context.Context, sessionID string, chunkIndex int, r io.Reader) (int64, error)
	// Open открывает чанк на чтение; отсутствие — models.ErrMissingChunk.
	Open(ctx context.Context, sessionID string, chunkIndex int) (io.ReadCloser, error)
	// Purge удаляет все чанки сессии; отсутствие чанков не ошибка.
	Purge(ctx context.Context, sessionID string) error
}
