package uploadhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

// uploadStatus отдаёт снимок прогресса сессии.
func (s *Server) uploadStatus(w http.ResponseWriter, r *http.Request) {
	progress, err := s.Uploads.Status(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(progress)
}
