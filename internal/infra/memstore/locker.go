package memstore

import (
	"context"
	"sync"

	"photo-market/internal/domain/ports/repository"
)

var _ repository.SessionLocker = (*Locker)(nil)

// Locker is a per-user mutex for a single process.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: map[int64]*keyLock{}}
}

// Lock blocks until the user's lock is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, tgID int64) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[tgID]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[tgID] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(tgID, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(tgID, kl)
		})
	}, nil
}

func (l *Locker) release(tgID int64, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, tgID)
	}
	l.mu.Unlock()
}

// held reports how many users currently have a lock entry.
func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
