package registry

import (
	"context"
	"sync"

	"github.com/sir_venger/upload_lite/internal/models"
)

// MemoryRegistry хранит сессии только в оперативной памяти; удобно для тестов.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*memSession
}

type memSession struct {
	mu     sync.Mutex
	owner  string
	total  int
	status models.UploadStatus
	bitmap []byte
}

// NewMemoryRegistry создаёт пустой in-memory реестр.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: map[string]*memSession{}}
}

var _ Registry = (*MemoryRegistry)(nil)

func (r *MemoryRegistry) Create(_ context.Context, sessionID, ownerID string, totalChunks int) error {
	if err := validateCreate(sessionID, totalChunks); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &memSession{
		owner:  ownerID,
		total:  totalChunks,
		status: models.StatusPending,
		bitmap: make([]byte, bitmapLen(totalChunks)),
	}
	return nil
}

func (r *MemoryRegistry) lookup(sessionID string) (*memSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (r *MemoryRegistry) MarkChunkReceived(_ context.Context, sessionID string, chunkIndex int) error {
	s, err := r.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if chunkIndex < 0 || chunkIndex >= s.total {
		return models.ErrOutOfRange
	}
	// Повторная установка того же бита ничего не меняет — ретраи безопасны.
	setBit(s.bitmap, chunkIndex)
	return nil
}

func (r *MemoryRegistry) Progress(_ context.Context, sessionID string) (models.Progress, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return models.Progress{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	done := countBits(s.bitmap)
	return models.Progress{
		SessionID:      sessionID,
		Percent:        models.ComputePercent(done, s.total),
		CompletedCount: done,
		TotalChunks:    s.total,
		Status:         s.status,
	}, nil
}

func (r *MemoryRegistry) IsComplete(ctx context.Context, sessionID string) (bool, error) {
	idx, err := r.FirstMissing(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return idx < 0, nil
}

func (r *MemoryRegistry) FirstMissing(_ context.Context, sessionID string) (int, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return firstMissing(s.bitmap, s.total), nil
}

func (r *MemoryRegistry) Transition(_ context.Context, sessionID string, newStatus models.UploadStatus) error {
	s, err := r.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !models.CanTransition(s.status, newStatus) {
		return models.ErrIllegalState
	}
	s.status = newStatus
	return nil
}

func (r *MemoryRegistry) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return models.ErrNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemoryRegistry) Close() {}

// Owner возвращает владельца сессии; нужен сервису для маршрутизации путей.
func (r *MemoryRegistry) Owner(_ context.Context, sessionID string) (string, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return "", err
	}
	return s.owner, nil
}
