package uploadhttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sir_venger/upload_lite/pkg/httperrors"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

type initiateRequest struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// initiateUpload открывает сессию загрузки для владельца из X-Device-ID.
func (s *Server) initiateUpload(w http.ResponseWriter, r *http.Request) {
	ownerID := strings.TrimSpace(r.Header.Get(uploadproto.HeaderOwnerID))
	if ownerID == "" {
		http.Error(w, "owner id header is required", http.StatusBadRequest)
		return
	}

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Uploads.Initiate(r.Context(), ownerID, req.FileName, req.FileSize, req.MimeType)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}
