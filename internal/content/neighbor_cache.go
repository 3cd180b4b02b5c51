package content

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// NeighborCache remembers the previous/next links of recently resolved articles.
type NeighborCache interface {
	Get(slug string) (Neighbors, bool)
	Add(slug string, neighbors Neighbors)
}

type lruNeighborCache struct {
	entries *expirable.LRU[string, Neighbors]
}

// NewNeighborCache returns a bounded cache whose entries expire after ttl.
func NewNeighborCache(size int, ttl time.Duration) NeighborCache {
	return &lruNeighborCache{entries: expirable.NewLRU[string, Neighbors](size, nil, ttl)}
}

func (c *lruNeighborCache) Get(slug string) (Neighbors, bool) {
	return c.entries.Get(slug)
}

func (c *lruNeighborCache) Add(slug string, neighbors Neighbors) {
	c.entries.Add(slug, neighbors)
}
