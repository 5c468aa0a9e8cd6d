package integration

import (
	"time"

	_ "unsafe"
)

//go:linkname callSweepOnce github.com/sir_venger/upload_lite/internal/chunkstore.sweepOnce
func callSweepOnce(root string, ttl time.Duration) error
