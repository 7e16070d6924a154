package graph

import (
	"context"
	"sync"
)

// threadLocks serialises turns per conversation id. Entries are dropped when
// no turn holds or waits for them.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	ch      chan struct{}
	waiters int
}

func newThreadLocks() *threadLocks {
	return &threadLocks{locks: make(map[string]*threadLock)}
}

// lock blocks until id is free or ctx is done.
func (l *threadLocks) lock(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	tl, ok := l.locks[id]
	if !ok {
		tl = &threadLock{ch: make(chan struct{}, 1)}
		l.locks[id] = tl
	}
	tl.waiters++
	l.mu.Unlock()

	select {
	case tl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(id, tl, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(id, tl, true) })
	}, nil
}

func (l *threadLocks) release(id string, tl *threadLock, held bool) {
	if held {
		<-tl.ch
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	tl.waiters--
	if tl.waiters == 0 {
		delete(l.locks, id)
	}
}
