// Package lock serializes operations that share a key, such as transitions of one
// workflow item.
package lock

import (
	"context"
	"sync"
)

// Locker acquires an exclusive lock on a key. The returned function releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex is an in-process Locker holding one mutex per active key
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

// NewKeyedMutex creates a new KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*keyedEntry),
	}
}

// Lock blocks until key is free or ctx is done
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() { k.release(key, e) }, nil
	case <-ctx.Done():
		// The waiter still takes the mutex eventually; hand it straight back.
		go func() {
			<-acquired
			k.release(key, e)
		}()
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) release(key string, e *keyedEntry) {
	e.mu.Unlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// Len returns the number of keys currently held or awaited
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
