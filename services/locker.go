package services

import (
	"context"
	"sync"
)

// TournamentLocker hands out one mutex per tournament id. Entries are
// reference counted and dropped once nobody holds or waits for them.
type TournamentLocker struct {
	mu    sync.Mutex
	locks map[string]*tournamentLock
}

type tournamentLock struct {
	sem  chan struct{}
	refs int
}

func NewTournamentLocker() *TournamentLocker {
	return &TournamentLocker{locks: make(map[string]*tournamentLock)}
}

// Lock blocks until key is free or ctx is done. The returned func releases
// the lock and must be called exactly once.
func (l *TournamentLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &tournamentLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
		return func() {
			<-kl.sem
			l.release(key, kl)
		}, nil
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}
}

func (l *TournamentLocker) release(key string, kl *tournamentLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *TournamentLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
