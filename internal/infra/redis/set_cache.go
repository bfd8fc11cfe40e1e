package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"trivia-builder-service/internal/app"
	"trivia-builder-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SetCache caches set and category documents in Redis as JSON and falls back
// to the wrapped store on a miss. Documents are stored as:
//
//	SET set:{setID}           {json}
//	SET category:{categoryID} {json}
//
// Writes go to the store first; the affected keys are dropped afterwards.
type SetCache struct {
	app.SetRepository

	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewSetCache(client *redis.Client, store app.SetRepository, ttl time.Duration) *SetCache {
	return &SetCache{
		SetRepository: store,
		client:        client,
		ttl:           ttl,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *SetCache) GetSet(ctx context.Context, setID string) (domain.CustomSet, error) {
	var set domain.CustomSet
	err := c.readThrough(ctx, setKey(setID), &set, func() (interface{}, error) {
		return c.SetRepository.GetSet(ctx, setID)
	})
	return set, err
}

func (c *SetCache) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	var cat domain.Category
	err := c.readThrough(ctx, categoryKey(categoryID), &cat, func() (interface{}, error) {
		return c.SetRepository.GetCategory(ctx, categoryID)
	})
	return cat, err
}

func (c *SetCache) SaveSet(ctx context.Context, set domain.CustomSet, categories []domain.Category, orphaned []string) error {
	if err := c.SetRepository.SaveSet(ctx, set, categories, orphaned); err != nil {
		return err
	}
	keys := []string{setKey(set.ID)}
	for _, cat := range categories {
		keys = append(keys, categoryKey(cat.ID))
	}
	for _, id := range orphaned {
		keys = append(keys, categoryKey(id))
	}
	c.invalidate(ctx, keys...)
	return nil
}

func (c *SetCache) DeleteSet(ctx context.Context, setID string) error {
	set, err := c.SetRepository.GetSet(ctx, setID)
	if err != nil {
		return err
	}
	if err := c.SetRepository.DeleteSet(ctx, setID); err != nil {
		return err
	}
	keys := []string{setKey(setID)}
	for _, id := range append(set.Round1CategoryIDs, set.Round2CategoryIDs...) {
		keys = append(keys, categoryKey(id))
	}
	c.invalidate(ctx, keys...)
	return nil
}

// readThrough decodes the document cached at key into dst, loading and caching
// it when missing. Redis errors degrade to a plain store read.
func (c *SetCache) readThrough(ctx context.Context, key string, dst interface{}, load func() (interface{}, error)) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if json.Unmarshal(raw, dst) == nil {
			return nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("redis get %s: %v", key, err)
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		doc, err := load()
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, encoded, c.ttlWithJitter()).Err(); err != nil {
			log.Printf("redis set %s: %v", key, err)
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(result.([]byte), dst)
}

func (c *SetCache) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.sf.Forget(key)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("redis del %v: %v", keys, err)
	}
}

func (c *SetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func setKey(setID string) string {
	return "set:" + setID
}

func categoryKey(categoryID string) string {
	return "category:" + categoryID
}
