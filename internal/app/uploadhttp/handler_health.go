package uploadhttp

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
)

// healthStats — payload ответа /health.
type healthStats struct {
	OK         bool  `json:"ok"`
	TotalBytes int64 `json:"total_bytes"`
}

// health возвращает агрегированную статистику по собранным файлам.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	var total int64
	err := filepath.WalkDir(s.FilesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthStats{
		OK:         true,
		TotalBytes: total,
	})
}

// gcOnce вручную запускает сбор заброшенных стейджинг-директорий.
func (s *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	_ = s.Staging.GCOnce(s.GCTTL)
	w.WriteHeader(http.StatusNoContent)
}
