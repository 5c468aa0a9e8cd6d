package registry

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Open выбирает бэкенд реестра по схеме DSN:
//   - memory://       — in-memory, живёт до перезапуска процесса;
//   - redis://...     — хеш + SETBIT-битмапа (модель исходной системы);
//   - postgres://...  — строка на сессию, set_bit по bytea.
func Open(ctx context.Context, dsn string, sessionTTL time.Duration) (Registry, error) {
	switch {
	case dsn == "" || strings.HasPrefix(dsn, "memory://"):
		return NewMemoryRegistry(), nil
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return OpenRedis(ctx, dsn, sessionTTL)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported registry dsn: %q", dsn)
	}
}
