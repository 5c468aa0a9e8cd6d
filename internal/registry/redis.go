package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sir_venger/upload_lite/internal/models"
)

// RedisRegistry хранит запись сессии в хеше session:{id}, а битмапу чанков —
// в строке chunks:{id} через SETBIT. SETBIT атомарен на стороне Redis, поэтому
// конкурентные отметки разных чанков одной сессии не теряют друг друга.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry оборачивает готовый клиент. TTL страхует от осиротевших
// ключей: заброшенная или гонящаяся с cancel сессия истечёт сама.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

// OpenRedis подключается по redis:// DSN и проверяет соединение.
func OpenRedis(ctx context.Context, dsn string, ttl time.Duration) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis dsn: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisRegistry(client, ttl), nil
}

var _ Registry = (*RedisRegistry)(nil)

func sessionKey(id string) string { return "session:" + id }
func chunksKey(id string) string  { return "chunks:" + id }

func (r *RedisRegistry) Create(ctx context.Context, sessionID, ownerID string, totalChunks int) error {
	if err := validateCreate(sessionID, totalChunks); err != nil {
		return err
	}

	key := sessionKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"owner_id":     ownerID,
		"total_chunks": totalChunks,
		"status":       string(models.StatusPending),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// totalChunks читает размер сессии; отсутствие ключа означает ErrNotFound.
func (r *RedisRegistry) totalChunks(ctx context.Context, sessionID string) (int, error) {
	v, err := r.client.HGet(ctx, sessionKey(sessionID), "total_chunks").Result()
	if errors.Is(err, redis.Nil) {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func (r *RedisRegistry) MarkChunkReceived(ctx context.Context, sessionID string, chunkIndex int) error {
	total, err := r.totalChunks(ctx, sessionID)
	if err != nil {
		return err
	}
	if chunkIndex < 0 || chunkIndex >= total {
		return models.ErrOutOfRange
	}

	key := chunksKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.SetBit(ctx, key, int64(chunkIndex), 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) Progress(ctx context.Context, sessionID string) (models.Progress, error) {
	rec, err := r.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return models.Progress{}, err
	}
	if len(rec) == 0 {
		return models.Progress{}, models.ErrNotFound
	}

	total, err := strconv.Atoi(rec["total_chunks"])
	if err != nil {
		return models.Progress{}, fmt.Errorf("corrupt total_chunks for %s: %w", sessionID, err)
	}

	done, err := r.client.BitCount(ctx, chunksKey(sessionID), nil).Result()
	if err != nil {
		return models.Progress{}, err
	}

	return models.Progress{
		SessionID:      sessionID,
		Percent:        models.ComputePercent(int(done), total),
		CompletedCount: int(done),
		TotalChunks:    total,
		Status:         models.UploadStatus(rec["status"]),
	}, nil
}

func (r *RedisRegistry) IsComplete(ctx context.Context, sessionID string) (bool, error) {
	idx, err := r.FirstMissing(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return idx < 0, nil
}

func (r *RedisRegistry) FirstMissing(ctx context.Context, sessionID string) (int, error) {
	total, err := r.totalChunks(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	// BITPOS ищет первый нулевой бит; для полностью заполненной строки он
	// указывает за её конец, поэтому всё, что >= total, означает "комплект".
	pos, err := r.client.BitPos(ctx, chunksKey(sessionID), 0).Result()
	if err != nil {
		return 0, err
	}
	if pos < 0 || pos >= int64(total) {
		return -1, nil
	}
	return int(pos), nil
}

func (r *RedisRegistry) Owner(ctx context.Context, sessionID string) (string, error) {
	v, err := r.client.HGet(ctx, sessionKey(sessionID), "owner_id").Result()
	if errors.Is(err, redis.Nil) {
		return "", models.ErrNotFound
	}
	return v, err
}

// transitionScript — compare-and-set статуса: легальные исходные статусы
// передаются аргументами, целевой — последним. Скрипт выполняется атомарно,
// поэтому check-then-act здесь не гонится.
var transitionScript = redis.NewScript(`
local s = redis.call('HGET', KEYS[1], 'status')
if not s then return 'missing' end
for i = 1, #ARGV - 1 do
  if s == ARGV[i] then
    redis.call('HSET', KEYS[1], 'status', ARGV[#ARGV])
    return 'ok'
  end
end
return 'illegal'
`)

func (r *RedisRegistry) Transition(ctx context.Context, sessionID string, newStatus models.UploadStatus) error {
	sources := models.TransitionSources(newStatus)
	args := make([]interface{}, 0, len(sources)+1)
	for _, s := range sources {
		args = append(args, string(s))
	}
	args = append(args, string(newStatus))

	res, err := transitionScript.Run(ctx, r.client, []string{sessionKey(sessionID)}, args...).Text()
	if err != nil {
		return err
	}
	switch res {
	case "ok":
		return nil
	case "missing":
		return models.ErrNotFound
	default:
		return models.ErrIllegalState
	}
}

func (r *RedisRegistry) Delete(ctx context.Context, sessionID string) error {
	n, err := r.client.Del(ctx, sessionKey(sessionID), chunksKey(sessionID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RedisRegistry) Close() {
	_ = r.client.Close()
}
