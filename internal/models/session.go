package models

import "github.com/sir_venger/upload_lite/pkg/uploadproto"

// Статусы и снимки прогресса — wire-типы из uploadproto: клиентский пакет
// не может импортировать internal, поэтому владеет структурами протокол.
type (
	UploadStatus = uploadproto.UploadStatus
	Progress     = uploadproto.Progress
)

const (
	StatusPending   = uploadproto.StatusPending
	StatusUploading = uploadproto.StatusUploading
	StatusCompleted = uploadproto.StatusCompleted
	StatusCancelled = uploadproto.StatusCancelled
	StatusError     = uploadproto.StatusError
)

// legalTransitions перечисляет допустимые переходы статусов.
// Терминальные статусы намеренно не имеют исходящих рёбер.
var legalTransitions = map[UploadStatus][]UploadStatus{
	StatusPending:   {StatusUploading, StatusCancelled, StatusError},
	StatusUploading: {StatusCompleted, StatusCancelled, StatusError},
}

// CanTransition отвечает, разрешён ли переход from → to.
func CanTransition(from, to UploadStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSources возвращает статусы, из которых разрешён переход в to.
func TransitionSources(to UploadStatus) []UploadStatus {
	var out []UploadStatus
	for from, nexts := range legalTransitions {
		for _, next := range nexts {
			if next == to {
				out = append(out, from)
			}
		}
	}
	return out
}

// ComputePercent пересчитывает процент по числу установленных бит.
func ComputePercent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
