package quotes

import (
	"context"
	"time"

	"github.com/finsim/papertrade/internal/models"

	"github.com/dgraph-io/ristretto"
)

// Cache wraps a Provider with a short-TTL quote cache for read paths.
// Lookup failures are never cached, so a transient provider outage does
// not pin a missing-price state.
type Cache struct {
	next Provider
	c    *ristretto.Cache
	ttl  time.Duration
}

func NewCache(next Provider, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{next: next, c: c, ttl: ttl}, nil
}

func (c *Cache) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	symbol, err := Normalize(symbol)
	if err != nil {
		return models.Quote{}, err
	}

	if v, ok := c.c.Get(symbol); ok {
		return v.(models.Quote), nil
	}

	q, err := c.next.Lookup(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}
	c.c.SetWithTTL(symbol, q, 1, c.ttl)
	return q, nil
}

// Wait blocks until buffered cache writes are applied. Only used in tests.
func (c *Cache) Wait() { c.c.Wait() }
