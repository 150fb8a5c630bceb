// Package keylock provides per-key exclusive sections so concurrent
// writers for different keys never contend on a global lock.
package keylock

import "sync"

// KeyLock hands out one mutex per key. Mutexes are created lazily and
// kept for the life of the KeyLock; key cardinality here (symbols,
// counterparties) is small enough that nothing is ever evicted.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the exclusive section for key and returns the unlock
// function.
func (kl *KeyLock) Lock(key string) func() {
	kl.mu.Lock()
	m, ok := kl.locks[key]
	if !ok {
		m = &sync.Mutex{}
		kl.locks[key] = m
	}
	kl.mu.Unlock()

	m.Lock()
	return m.Unlock
}
