package service

import "sync"

// recordingLocks hands out one mutex per recording id. Entries are kept for
// the process lifetime; the population is bounded by the recordings touched
// since startup.
type recordingLocks struct {
	m sync.Map
}

// lock acquires the mutex for id and returns its unlock function.
func (l *recordingLocks) lock(id uint) func() {
	mu, _ := l.m.LoadOrStore(id, &sync.Mutex{})
	mtx := mu.(*sync.Mutex)
	mtx.Lock()
	return mtx.Unlock
}
