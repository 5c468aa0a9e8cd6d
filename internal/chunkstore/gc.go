package chunkstore

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StartGC стартует периодическую очистку заброшенных стейджинг-директорий.
func (s *DiskStore) StartGC(ttl time.Duration, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				_ = sweepOnce(s.root, ttl)
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// GCOnce однократно запускает сбор старых сессий; используется /admin/gc.
func (s *DiskStore) GCOnce(ttl time.Duration) error {
	return sweepOnce(s.root, ttl)
}

// sweepOnce удаляет директории сессий, в которые давно ничего не писали.
// Сессия, живущая дольше TTL без единого нового чанка, считается брошенной.
func sweepOnce(root string, ttl time.Duration) error {
	now := time.Now()
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		dir := filepath.Join(root, e.Name())
		if now.Sub(lastWrite(dir)) < ttl {
			continue
		}
		_ = os.RemoveAll(dir)
	}

	return nil
}

// lastWrite — время последней записи в директорию: максимум из mtime самой
// директории и mtime её файлов.
func lastWrite(dir string) time.Time {
	latest := time.Time{}
	if fi, err := os.Stat(dir); err == nil {
		latest = fi.ModTime()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return latest
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}
