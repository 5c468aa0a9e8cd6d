package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sir_venger/upload_lite/internal/models"
)

const sessionsTable = "upload_sessions"

// PGRegistry сохраняет сессии в Postgres. Битмапа лежит в bytea, бит
// устанавливается серверным set_bit внутри одного UPDATE: строка блокируется
// на время апдейта, поэтому конкурентные отметки чанков не затирают друг друга.
type PGRegistry struct {
	pool *pgxpool.Pool
}

// OpenPostgres создаёт пул подключений и проверяет доступность базы.
func OpenPostgres(ctx context.Context, dsn string) (*PGRegistry, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("registry dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PGRegistry{pool: pool}, nil
}

var _ Registry = (*PGRegistry)(nil)

func (r *PGRegistry) Create(ctx context.Context, sessionID, ownerID string, totalChunks int) error {
	if err := validateCreate(sessionID, totalChunks); err != nil {
		return err
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(sessionsTable).
		Columns("id", "owner_id", "total_chunks", "status", "bitmap").
		Values(sessionID, ownerID, totalChunks, string(models.StatusPending), make([]byte, bitmapLen(totalChunks))).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec insert: %w", err)
	}
	return nil
}

func (r *PGRegistry) MarkChunkReceived(ctx context.Context, sessionID string, chunkIndex int) error {
	if chunkIndex < 0 {
		return models.ErrOutOfRange
	}

	// Диапазон проверяется тем же UPDATE'ом: задетая строка означает,
	// что сессия существует и индекс в пределах total_chunks.
	tag, err := r.pool.Exec(ctx,
		`UPDATE `+sessionsTable+`
		 SET bitmap = set_bit(bitmap, $2, 1)
		 WHERE id = $1 AND $2 < total_chunks`,
		sessionID, chunkIndex,
	)
	if err != nil {
		return fmt.Errorf("exec set_bit: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Ноль строк: различаем отсутствующую сессию и выход за диапазон.
	if _, err := r.totalChunks(ctx, sessionID); err != nil {
		return err
	}
	return models.ErrOutOfRange
}

func (r *PGRegistry) totalChunks(ctx context.Context, sessionID string) (int, error) {
	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("total_chunks").
		From(sessionsTable).
		Where(sq.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("scan total_chunks: %w", err)
	}
	return total, nil
}

type pgSnapshot struct {
	owner  string
	total  int
	status models.UploadStatus
	bitmap []byte
}

func (r *PGRegistry) snapshot(ctx context.Context, sessionID string) (pgSnapshot, error) {
	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("owner_id", "total_chunks", "status", "bitmap").
		From(sessionsTable).
		Where(sq.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return pgSnapshot{}, fmt.Errorf("build select: %w", err)
	}

	var (
		snap   pgSnapshot
		status string
	)
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&snap.owner, &snap.total, &status, &snap.bitmap); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgSnapshot{}, models.ErrNotFound
		}
		return pgSnapshot{}, fmt.Errorf("scan session row: %w", err)
	}
	snap.status = models.UploadStatus(status)
	return snap, nil
}

func (r *PGRegistry) Progress(ctx context.Context, sessionID string) (models.Progress, error) {
	snap, err := r.snapshot(ctx, sessionID)
	if err != nil {
		return models.Progress{}, err
	}

	done := countBits(snap.bitmap)
	return models.Progress{
		SessionID:      sessionID,
		Percent:        models.ComputePercent(done, snap.total),
		CompletedCount: done,
		TotalChunks:    snap.total,
		Status:         snap.status,
	}, nil
}

func (r *PGRegistry) IsComplete(ctx context.Context, sessionID string) (bool, error) {
	idx, err := r.FirstMissing(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return idx < 0, nil
}

func (r *PGRegistry) FirstMissing(ctx context.Context, sessionID string) (int, error) {
	snap, err := r.snapshot(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return firstMissing(snap.bitmap, snap.total), nil
}

func (r *PGRegistry) Owner(ctx context.Context, sessionID string) (string, error) {
	snap, err := r.snapshot(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return snap.owner, nil
}

func (r *PGRegistry) Transition(ctx context.Context, sessionID string, newStatus models.UploadStatus) error {
	sources := models.TransitionSources(newStatus)
	from := make([]string, 0, len(sources))
	for _, s := range sources {
		from = append(from, string(s))
	}

	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Update(sessionsTable).
		Set("status", string(newStatus)).
		Where(sq.Eq{"id": sessionID, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("exec transition: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := r.totalChunks(ctx, sessionID); err != nil {
		return err
	}
	return models.ErrIllegalState
}

func (r *PGRegistry) Delete(ctx context.Context, sessionID string) error {
	sqlStr, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Delete(sessionsTable).
		Where(sq.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("exec delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PGRegistry) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
