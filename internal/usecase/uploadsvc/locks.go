package uploadsvc

import "sync"

// keyedLocks выдаёт мьютекс на ключ. Записи живут, пока их кто-то держит:
// счётчик ссылок убирает запись после последнего release, чтобы карта не
// росла по числу когда-либо виденных сессий.
type keyedLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// acquire блокирует ключ и возвращает функцию разблокировки.
func (k *keyedLocks) acquire(key string) func() {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = map[string]*lockEntry{}
	}
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
