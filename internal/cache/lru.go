// Package cache provides the LRU caches used while loading and analyzing
// captured traffic.
package cache

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

// ExchangeCache provides thread-safe LRU caching for converted exchanges,
// keyed by source-specific IDs such as "session/entry".
type ExchangeCache struct {
	cache *lru.Cache[string, *exchange.Exchange]
}

// NewExchangeCache creates a new LRU cache with the specified maximum number of items.
func NewExchangeCache(maxItems int) (*ExchangeCache, error) {
	c, err := lru.New[string, *exchange.Exchange](maxItems)
	if err != nil {
		return nil, err
	}
	return &ExchangeCache{cache: c}, nil
}

// Get retrieves an exchange from the cache by its key.
func (c *ExchangeCache) Get(key string) (*exchange.Exchange, bool) {
	return c.cache.Get(key)
}

// Put adds or updates an exchange in the cache.
func (c *ExchangeCache) Put(key string, ex *exchange.Exchange) {
	c.cache.Add(key, ex)
}

// Len returns the current number of items in the cache.
func (c *ExchangeCache) Len() int {
	return c.cache.Len()
}

// InferCache memoizes body type inference by content hash. Type nodes are
// immutable, so one cached node can be shared by every endpoint fold.
// Identical payloads are common in captures (polling, retries, paging
// through empty pages).
type InferCache struct {
	cache *lru.Cache[[sha256.Size]byte, *typenode.Node]
	opts  typenode.InferOptions
}

// NewInferCache creates an inference cache.
func NewInferCache(maxItems int, opts typenode.InferOptions) (*InferCache, error) {
	c, err := lru.New[[sha256.Size]byte, *typenode.Node](maxItems)
	if err != nil {
		return nil, err
	}
	return &InferCache{cache: c, opts: opts}, nil
}

// Infer returns the type of a decoded JSON body, computing it on a miss.
// It matches the builder's InferFunc signature.
func (c *InferCache) Infer(body exchange.Body) *typenode.Node {
	key := sha256.Sum256(body.Raw)
	if n, ok := c.cache.Get(key); ok {
		return n
	}
	n := typenode.InferWith(body.JSON, c.opts)
	c.cache.Add(key, n)
	return n
}

// Len returns the current number of items in the cache.
func (c *InferCache) Len() int {
	return c.cache.Len()
}
