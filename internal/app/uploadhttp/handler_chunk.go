package uploadhttp

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

// receiveChunk принимает тело чанка как raw octets. Декодирование
// multipart/base64 — забота вышестоящего слоя, сюда приходят готовые байты.
func (s *Server) receiveChunk(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	idxStr := chi.URLParam(r, "idx")
	if sessionID == "" || idxStr == "" {
		http.NotFound(w, r)
		return
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		http.Error(w, "invalid chunk index", http.StatusBadRequest)
		return
	}

	totalChunks, err := strconv.Atoi(r.Header.Get(uploadproto.HeaderTotalChunks))
	if err != nil || totalChunks <= 0 {
		http.Error(w, "invalid total chunks header", http.StatusBadRequest)
		return
	}

	// Чанк не может превышать настроенный размер нарезки.
	body := io.Reader(http.MaxBytesReader(w, r.Body, s.ChunkSize))
	if expected := r.Header.Get(uploadproto.HeaderChecksum); expected != "" {
		body = newChecksumReader(body, expected)
	}

	progress, err := s.Uploads.ReceiveChunk(r.Context(), sessionID, idx, totalChunks, body)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(progress)
}

// checksumReader считает SHA-256 по мере чтения и подменяет EOF ошибкой при
// несовпадении: запись обрывается до того, как бит чанка будет отмечен.
type checksumReader struct {
	inner    io.Reader
	hash     hash.Hash
	expected string
}

func newChecksumReader(inner io.Reader, expected string) *checksumReader {
	h := sha256.New()
	return &checksumReader{
		inner:    io.TeeReader(inner, h),
		hash:     h,
		expected: expected,
	}
}

func (c *checksumReader) Read(p []byte) (int, error) {
	n, err := c.inner.Read(p)
	if err == io.EOF {
		got := hex.EncodeToString(c.hash.Sum(nil))
		if got != c.expected {
			return n, fmt.Errorf("%w: sha256 want %s, got %s", models.ErrChecksumMismatch, c.expected, got)
		}
	}
	return n, err
}
