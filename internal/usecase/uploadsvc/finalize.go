package uploadsvc

import (
	"context"
	"errors"

	"github.com/sir_venger/upload_lite/internal/models"
)

// Finalize проверяет комплектность сессии, собирает файл и удаляет запись
// сессии. Выполняется под пер-сессионным замком: два конкурентных finalize
// не породят второй файл — опоздавший увидит ErrNotFound.
func (s *Uploads) Finalize(ctx context.Context, sessionID, fileName string) (models.AssembledFile, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	missing, err := s.Registry.FirstMissing(ctx, sessionID)
	if err != nil {
		return models.AssembledFile{}, err
	}
	if missing >= 0 {
		// Сессия остаётся нетронутой: докачав чанк, клиент повторит finalize.
		return models.AssembledFile{}, &models.IncompleteUploadError{MissingIndex: missing}
	}

	progress, err := s.Registry.Progress(ctx, sessionID)
	if err != nil {
		return models.AssembledFile{}, err
	}
	owner, err := s.Registry.Owner(ctx, sessionID)
	if err != nil {
		return models.AssembledFile{}, err
	}

	file, err := s.assemble(ctx, sessionID, fileName, progress.TotalChunks, owner)
	if err != nil {
		// Стейджинг не трогаем: ошибка сборки ретраится повторным finalize.
		return models.AssembledFile{}, err
	}

	// Финализация может застать сессию ещё в pending: бит последнего чанка
	// уже выставлен, а переход pending → uploading из ReceiveChunk ещё не
	// применён. Запись всё равно удаляется строкой ниже, поэтому
	// ErrIllegalState здесь не ошибка — иначе ретрай был бы невозможен:
	// стейджинг к этому моменту уже вычищен сборкой.
	if err := s.Registry.Transition(ctx, sessionID, models.StatusCompleted); err != nil &&
		!errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrIllegalState) {
		return models.AssembledFile{}, err
	}
	// Терминальный статус означает исчезновение записи: дальше finalize и
	// status по этому id отвечают "not found".
	if err := s.Registry.Delete(ctx, sessionID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.AssembledFile{}, err
	}

	return file, nil
}

// Cancel удаляет запись сессии и все staged-чанки независимо от прогресса.
// Идемпотентен: отмена несуществующей сессии не ошибка.
func (s *Uploads) Cancel(ctx context.Context, sessionID string) error {
	release := s.locks.acquire(sessionID)
	defer release()

	if err := s.Registry.Delete(ctx, sessionID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return s.Chunks.Purge(ctx, sessionID)
}
