package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("upload session not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrOutOfRange       = errors.New("chunk index out of range")
	ErrMissingChunk     = errors.New("staged chunk missing")
	ErrIncomplete       = errors.New("upload incomplete")
	ErrPayloadTooLarge  = errors.New("file size exceeds limit")
	ErrIllegalState     = errors.New("illegal status transition")
	ErrChecksumMismatch = errors.New("chunk verification failed")
)

// IncompleteUploadError уточняет ErrIncomplete индексом отсутствующего чанка.
type IncompleteUploadError struct {
	MissingIndex int
}

func (e *IncompleteUploadError) Error() string {
	return fmt.Sprintf("upload incomplete: chunk %d is missing", e.MissingIndex)
}

// Unwrap позволяет errors.Is находить сентинел ErrIncomplete за типизированной ошибкой.
func (e *IncompleteUploadError) Unwrap() error { return ErrIncomplete }
