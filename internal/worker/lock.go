package worker

import "sync"

// productLocks serializes stock handling per product id. Two near-
// simultaneous events for the same product would otherwise race on the
// read-modify-write of current stock; ids that never collide pay nothing.
type productLocks struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[int64]*lockEntry)}
}

// Lock acquires the mutex for a product id, creating it on first use.
func (pl *productLocks) Lock(id int64) {
	pl.mu.Lock()
	entry, ok := pl.locks[id]
	if !ok {
		entry = &lockEntry{}
		pl.locks[id] = entry
	}
	entry.refs++
	pl.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the mutex for a product id and drops the entry once no
// goroutine references it.
func (pl *productLocks) Unlock(id int64) {
	pl.mu.Lock()
	entry := pl.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(pl.locks, id)
	}
	pl.mu.Unlock()

	entry.mu.Unlock()
}
