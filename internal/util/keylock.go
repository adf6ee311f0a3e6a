package util

import (
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
)

// KeyLock serializes work on the same natural key while letting different
// keys proceed concurrently.
type KeyLock struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: xsync.NewMapOf[string, *sync.Mutex]()}
}

func (k *KeyLock) Lock(key string) (unlock func()) {
	mu, _ := k.locks.LoadOrCompute(key, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()

	return mu.Unlock
}

func (k *KeyLock) With(key string, fn func() error) error {
	unlock := k.Lock(key)
	defer unlock()

	return fn()
}
