package uploadclient

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	progressBarWidth     = 32
	progressRenderPeriod = 120 * time.Millisecond
)

// progressBar рисует ASCII-индикатор выполнения загрузки.
type progressBar struct {
	mu         sync.Mutex
	prefix     string
	total      int64
	current    int64
	lastRender time.Time
	finished   bool
	quiet      bool
}

func newProgressBar(prefix string, total int64, quiet bool) *progressBar {
	return &progressBar{prefix: prefix, total: total, quiet: quiet}
}

// Add учитывает n переданных байт и перерисовывает строку не чаще
// progressRenderPeriod.
func (p *progressBar) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.current += n

	now := time.Now()
	if now.Sub(p.lastRender) < progressRenderPeriod {
		return
	}
	p.lastRender = now
	p.printLocked("")
}

func (p *progressBar) Finish() {
	p.completeLocked(" ok\n")
}

func (p *progressBar) Fail(err error) {
	p.completeLocked(fmt.Sprintf(" failed: %v\n", err))
}

func (p *progressBar) completeLocked(suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.printLocked(suffix)
}

func (p *progressBar) printLocked(suffix string) {
	if p.quiet {
		return
	}

	ratio := float64(0)
	if p.total > 0 {
		ratio = float64(p.current) / float64(p.total)
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(progressBarWidth))

	fmt.Fprintf(os.Stdout, "\r%s [%s%s] %3d%% %s/%s%s",
		p.prefix,
		strings.Repeat("=", filled),
		strings.Repeat(" ", progressBarWidth-filled),
		int(ratio*100),
		humanBytes(p.current),
		humanBytes(p.total),
		suffix,
	)
}

func humanBytes(v int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(v)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", v, units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}
