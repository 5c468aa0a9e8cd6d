// Package mimetype определяет MIME-тип файла по его расширению.
package mimetype

import (
	"path/filepath"
	"strings"

	gomime "github.com/cubewise-code/go-mime"
)

const fallback = "application/octet-stream"

// ByName возвращает MIME-тип по имени файла; неизвестные расширения
// получают application/octet-stream.
func ByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return fallback
	}
	if ct := gomime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return fallback
}

// IsImage — относится ли тип к изображениям.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
