package service

import "sync"

// TripLocks serializes work on one trip without making different trips
// contend. A lock exists only while someone holds or waits for it, so a trip
// that has gone quiet (or reached a terminal status) leaves nothing behind.
type TripLocks struct {
	mu    sync.Mutex
	locks map[int64]*tripLock
}

type tripLock struct {
	mu   sync.Mutex
	refs int
}

// NewTripLocks returns an empty lock table.
func NewTripLocks() *TripLocks {
	return &TripLocks{locks: make(map[int64]*tripLock)}
}

// Lock blocks until the caller owns tripID and returns the matching unlock.
func (l *TripLocks) Lock(tripID int64) (unlock func()) {
	l.mu.Lock()
	tl, ok := l.locks[tripID]
	if !ok {
		tl = &tripLock{}
		l.locks[tripID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()
	return func() {
		tl.mu.Unlock()
		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, tripID)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of trips that currently have a lock entry.
func (l *TripLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
