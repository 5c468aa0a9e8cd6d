// Package uploadproto описывает HTTP-протокол чанк-аплоада, общий для
// сервера и клиента.
package uploadproto

// Параметры REST-протокола загрузки по частям.
const (
	InitiatePathFormat = "%s/api/upload/initiate"
	ChunkPathFormat    = "%s/api/upload/%s/chunks/%d"
	FinalizePathFormat = "%s/api/upload/%s/finalize"
	StatusPathFormat   = "%s/api/upload/%s/status"
	CancelPathFormat   = "%s/api/upload/%s"

	HeaderOwnerID     = "X-Device-ID"
	HeaderChecksum    = "X-Checksum-Sha256"
	HeaderTotalChunks = "X-Total-Chunks"
)
