package datastore

import (
	"sync"

	"github.com/rs/zerolog"
)

// KeyedMutex hands out one mutex per key, typically a task id.
type KeyedMutex struct {
	mutexes map[string]*sync.Mutex
	mapLock sync.RWMutex
	logger  zerolog.Logger
}

// NewKeyedMutex creates a new keyed mutex manager
func NewKeyedMutex(logger zerolog.Logger) *KeyedMutex {
	return &KeyedMutex{
		mutexes: make(map[string]*sync.Mutex),
		logger:  logger.With().Str("component", "KeyedMutex").Logger(),
	}
}

// Get returns the mutex guarding key, creating it on first use.
func (km *KeyedMutex) Get(key string) *sync.Mutex {
	km.mapLock.RLock()
	mutex, exists := km.mutexes[key]
	km.mapLock.RUnlock()

	if exists {
		return mutex
	}

	km.mapLock.Lock()
	defer km.mapLock.Unlock()

	// Double-check after acquiring write lock
	if mutex, exists := km.mutexes[key]; exists {
		return mutex
	}

	mutex = &sync.Mutex{}
	km.mutexes[key] = mutex
	return mutex
}

// Forget drops the mutex of a key that is no longer in use, e.g. a deleted task.
func (km *KeyedMutex) Forget(key string) {
	km.mapLock.Lock()
	delete(km.mutexes, key)
	remaining := len(km.mutexes)
	km.mapLock.Unlock()

	km.logger.Debug().Str("key", key).Int("active_mutexes", remaining).Msg("Released keyed mutex")
}

// Len reports how many keys currently hold a mutex.
func (km *KeyedMutex) Len() int {
	km.mapLock.RLock()
	defer km.mapLock.RUnlock()
	return len(km.mutexes)
}
