package uploadhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

// listFiles возвращает метаданные всех собранных файлов владельца.
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.Uploads.ListFiles(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(files)
}

// deleteFile удаляет собранный файл вместе с превью.
func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	fileID := chi.URLParam(r, "fileID")

	if err := s.Uploads.DeleteFile(r.Context(), ownerID, fileID); err != nil {
		httperrors.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
