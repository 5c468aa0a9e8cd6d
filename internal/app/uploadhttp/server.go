package uploadhttp

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/config"
	"github.com/sir_venger/upload_lite/internal/registry"
	"github.com/sir_venger/upload_lite/internal/thumbnail"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
)

// Server обслуживает API чанк-аплоада поверх сервиса загрузок.
type Server struct {
	Uploads   uploadsvc.Service
	Staging   *chunkstore.DiskStore
	FilesDir  string
	ChunkSize int64
	GCTTL     time.Duration
}

// NewServer собирает зависимости по конфигурации и возвращает готовый handler.
func NewServer(ctx context.Context, cfg *config.Config) (http.Handler, *Server, error) {
	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour

	reg, err := registry.Open(ctx, cfg.RegistryDSN, ttl)
	if err != nil {
		return nil, nil, err
	}

	staging, err := chunkstore.NewDiskStore(filepath.Join(cfg.DataDir, "staging"))
	if err != nil {
		reg.Close()
		return nil, nil, err
	}

	filesDir := filepath.Join(cfg.DataDir, "files")
	uploads := uploadsvc.New(uploadsvc.Deps{
		Registry:    reg,
		Chunks:      staging,
		Thumbs:      thumbnail.New(),
		FilesDir:    filesDir,
		ChunkSize:   cfg.ChunkSize,
		MaxFileSize: cfg.MaxFileSize,
	})

	srv := &Server{
		Uploads:   uploads,
		Staging:   staging,
		FilesDir:  filesDir,
		ChunkSize: cfg.ChunkSize,
		GCTTL:     ttl,
	}

	return srv.routes(), srv, nil
}

// routes регистрирует обработчики загрузки, файлов, здоровья и GC.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/upload", func(ur chi.Router) {
		ur.Post("/initiate", s.initiateUpload)
		ur.Route("/{sessionID}", func(sr chi.Router) {
			sr.Put("/chunks/{idx}", s.receiveChunk)
			sr.Post("/finalize", s.finalizeUpload)
			sr.Get("/status", s.uploadStatus)
			sr.Delete("/", s.cancelUpload)
		})
	})

	r.Get("/api/files/{ownerID}", s.listFiles)
	r.Delete("/api/files/{ownerID}/{fileID}", s.deleteFile)

	// Статика собранных файлов: {ownerID}/{fileID}/original|thumbnail/{name}.
	fileServer := http.FileServer(http.Dir(s.FilesDir))
	r.Handle("/files/*", http.StripPrefix("/files/", fileServer))

	r.Get("/health", s.health)
	r.HandleFunc("/admin/gc", s.gcOnce)

	return r
}
