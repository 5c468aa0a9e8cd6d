package uploadhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

// cancelUpload отменяет сессию. Отмена fail-safe: несуществующий id — не ошибка.
func (s *Server) cancelUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.Uploads.Cancel(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		httperrors.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
