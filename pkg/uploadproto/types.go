package uploadproto

import "time"

// UploadStatus — этап жизненного цикла сессии, как он виден по проводу.
type UploadStatus string

const (
	StatusPending   UploadStatus = "pending"
	StatusUploading UploadStatus = "uploading"
	StatusCompleted UploadStatus = "completed"
	StatusCancelled UploadStatus = "cancelled"
	StatusError     UploadStatus = "error"
)

// InitiateResult возвращается после открытия сессии и содержит параметры нарезки.
type InitiateResult struct {
	SessionID   string `json:"session_id"`
	ChunkSize   int64  `json:"chunk_size"`
	TotalChunks int    `json:"total_chunks"`
}

// Progress — снимок готовности сессии: процент всегда пересчитан на сервере.
type Progress struct {
	SessionID      string       `json:"session_id"`
	Percent        float64      `json:"percent"`
	CompletedCount int          `json:"completed_chunks"`
	TotalChunks    int          `json:"total_chunks"`
	Status         UploadStatus `json:"status"`
}

// AssembledFile содержит метаданные собранного файла. Идентификатором файла
// становится id сессии, поэтому повторная сборка не плодит дубликатов.
type AssembledFile struct {
	ID           string    `json:"file_id"`
	Name         string    `json:"file_name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	OwnerID      string    `json:"owner_id"`
}
