package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// AccountLocker hands out one exclusive lock per account ID
type AccountLocker struct {
	mu      sync.Mutex
	slots   map[string]*lockSlot
	timeout time.Duration
}

type lockSlot struct {
	sem     chan struct{}
	waiters int // Holders plus goroutines waiting; the slot is dropped when it reaches zero
}

// NewAccountLocker creates a locker. A positive timeout bounds how long Lock waits.
func NewAccountLocker(timeout time.Duration) *AccountLocker {
	return &AccountLocker{
		slots:   make(map[string]*lockSlot),
		timeout: timeout,
	}
}

// Lock acquires the locks of all distinct ids in ascending order and returns a function
// releasing them. On error nothing is held.
func (l *AccountLocker) Lock(ctx context.Context, ids ...string) (func(), error) {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	acquired := make([]string, 0, len(ordered))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			l.unlock(acquired[i])
		}
	}

	for _, id := range ordered {
		if err := l.lock(ctx, id); err != nil {
			release()
			return nil, fmt.Errorf("failed to lock account %s: %w", id, err)
		}
		acquired = append(acquired, id)
	}

	return release, nil
}

func (l *AccountLocker) lock(ctx context.Context, id string) error {
	l.mu.Lock()
	slot, ok := l.slots[id]
	if !ok {
		slot = &lockSlot{sem: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.waiters++
	l.mu.Unlock()

	select {
	case slot.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(id, slot)
		return ctx.Err()
	}
}

func (l *AccountLocker) unlock(id string) {
	l.mu.Lock()
	slot := l.slots[id]
	l.mu.Unlock()

	<-slot.sem
	l.release(id, slot)
}

func (l *AccountLocker) release(id string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.waiters--
	if slot.waiters == 0 {
		delete(l.slots, id)
	}
}

// size reports the number of accounts currently locked or waited on
func (l *AccountLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
