package machine

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
)

// CachingFactory keeps recently built machines keyed by variant. Machines are
// immutable, so a cached machine is shared by concurrent callers.
type CachingFactory struct {
	inner Factory
	cache *lru.Cache[variant.Variant, Machine]
}

var _ Factory = (*CachingFactory)(nil)

// NewCachingFactory wraps inner with an LRU of the given size.
func NewCachingFactory(inner Factory, size int) (*CachingFactory, error) {
	if inner == nil {
		return nil, fmt.Errorf("machine: nil factory")
	}
	cache, err := lru.New[variant.Variant, Machine](size)
	if err != nil {
		return nil, fmt.Errorf("machine: creating cache: %w", err)
	}
	return &CachingFactory{inner: inner, cache: cache}, nil
}

// New returns the cached machine for v, building it on a miss. Construction
// errors are not cached.
func (f *CachingFactory) New(v variant.Variant) (Machine, error) {
	if m, ok := f.cache.Get(v); ok {
		return m, nil
	}
	m, err := f.inner.New(v)
	if err != nil {
		return nil, err
	}
	f.cache.Add(v, m)
	return m, nil
}

// Len returns the number of cached machines.
func (f *CachingFactory) Len() int {
	return f.cache.Len()
}

// Purge drops every cached machine.
func (f *CachingFactory) Purge() {
	f.cache.Purge()
}
