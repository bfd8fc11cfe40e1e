package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-builder-service/internal/app"
	"trivia-builder-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// SetCache fronts a slower store (e.g. Postgres) with a TTL cache of set
// documents. Writes go through to the store and invalidate the entry.
type SetCache struct {
	app.SetRepository

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.CustomSet
	expiresAt time.Time
}

func NewSetCache(store app.SetRepository, ttl time.Duration) *SetCache {
	return &SetCache{
		SetRepository: store,
		ttl:           ttl,
		clock:         time.Now,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:         make(map[string]cachedSet),
	}
}

func (c *SetCache) GetSet(ctx context.Context, setID string) (domain.CustomSet, error) {
	if set, ok := c.lookup(setID); ok {
		return set, nil
	}

	result, err, _ := c.sf.Do(setID, func() (interface{}, error) {
		if set, ok := c.lookup(setID); ok {
			return set, nil
		}
		now := c.clock()
		set, err := c.SetRepository.GetSet(ctx, setID)
		if err != nil {
			return domain.CustomSet{}, err
		}

		c.mu.Lock()
		c.cache[setID] = cachedSet{set: set.Clone(), expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.CustomSet{}, err
	}
	return result.(domain.CustomSet).Clone(), nil
}

func (c *SetCache) SaveSet(ctx context.Context, set domain.CustomSet, categories []domain.Category, orphaned []string) error {
	c.invalidate(set.ID)
	return c.SetRepository.SaveSet(ctx, set, categories, orphaned)
}

func (c *SetCache) DeleteSet(ctx context.Context, setID string) error {
	c.invalidate(setID)
	return c.SetRepository.DeleteSet(ctx, setID)
}

func (c *SetCache) lookup(setID string) (domain.CustomSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[setID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.CustomSet{}, false
	}
	return entry.set.Clone(), true
}

func (c *SetCache) invalidate(setID string) {
	c.mu.Lock()
	delete(c.cache, setID)
	c.mu.Unlock()
	c.sf.Forget(setID)
}

func (c *SetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
