package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto"
)

var (
	ErrKeyNotFound = errors.New("key not found within the cache")
	ErrSetFailed   = errors.New("failed to set value in cache")
)

// WriteBehindCache groups values under a shared key before they are
// assembled into traces. Reads are served from ristretto when possible and
// fall back to the write queue, which holds every value until Reset.
type WriteBehindCache[ValueType any] interface {
	Get(key string) ([]ValueType, error)
	Put(key string, value []ValueType) error
	Reset()
}

type WriteBehindCacheImpl[ValueType any] struct {
	cache      *ristretto.Cache
	writeQueue map[string][]ValueType
	mu         sync.RWMutex
}

func NewWriteBehindCacheImpl[ValueType any](cache *ristretto.Cache) *WriteBehindCacheImpl[ValueType] {
	return &WriteBehindCacheImpl[ValueType]{
		cache:      cache,
		writeQueue: make(map[string][]ValueType),
	}
}

func (wbc *WriteBehindCacheImpl[ValueType]) Get(key string) ([]ValueType, error) {
	value, found := wbc.cache.Get(key)
	if found {
		typedValue, ok := value.([]ValueType)
		if !ok {
			return nil, fmt.Errorf("value not of expected type %T returned from cache when getting", value)
		}
		return typedValue, nil
	}

	wbc.mu.RLock()
	defer wbc.mu.RUnlock()
	queuedValue, found := wbc.writeQueue[key]
	if !found {
		return nil, ErrKeyNotFound
	}
	return queuedValue, nil
}

func (wbc *WriteBehindCacheImpl[ValueType]) Put(key string, value []ValueType) error {
	wbc.mu.Lock()
	wbc.writeQueue[key] = append(wbc.writeQueue[key], value...)
	totalValue := wbc.writeQueue[key]
	wbc.mu.Unlock()

	set := wbc.cache.Set(key, totalValue, int64(len(totalValue)))
	if !set {
		return ErrSetFailed
	}
	return nil
}

func (wbc *WriteBehindCacheImpl[ValueType]) Reset() {
	wbc.mu.Lock()
	wbc.writeQueue = make(map[string][]ValueType)
	wbc.mu.Unlock()
	wbc.cache.Clear()
}
