// Package uploadhttp реализует Upload API — HTTP-интерфейс движка чанк-аплоада.
// Основные эндпоинты:
//   - POST /api/upload/initiate — открывает сессию, возвращает id и план нарезки.
//   - PUT /api/upload/{sessionID}/chunks/{idx} — принимает чанк (raw octets),
//     опционально сверяет SHA-256, возвращает прогресс.
//   - POST /api/upload/{sessionID}/finalize — собирает файл и закрывает сессию.
//   - GET /api/upload/{sessionID}/status — снимок прогресса.
//   - DELETE /api/upload/{sessionID} — отменяет сессию и чистит стейджинг.
//   - GET /api/files/{ownerID} — список собранных файлов владельца.
//   - DELETE /api/files/{ownerID}/{fileID} — удаляет собранный файл.
//   - GET /files/* — статика собранных файлов и превью.
//   - POST /admin/gc — ручной сбор заброшенных стейджинг-директорий.
//   - GET /health — агрегированные метрики по каталогу данных.
package uploadhttp
