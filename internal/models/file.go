package models

import "github.com/sir_venger/upload_lite/pkg/uploadproto"

// Метаданные собранного файла и план нарезки — тоже wire-типы.
type (
	AssembledFile  = uploadproto.AssembledFile
	InitiateResult = uploadproto.InitiateResult
)
