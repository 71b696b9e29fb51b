package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/quiz"
)

// maxCached caps how many standings one cache entry holds. Every read for the
// same period key is served by slicing this one entry, whatever its n.
const maxCached = 50

// StandingsCache is a read-through Redis cache in front of a
// quiz.StandingsSource. Entries are stored as JSON per period key:
// SET standings:{periodType}:{periodKey} [...]
type StandingsCache struct {
	client *redis.Client
	src    quiz.StandingsSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewStandingsCache(client *redis.Client, src quiz.StandingsSource, ttl time.Duration) *StandingsCache {
	return &StandingsCache{
		client: client,
		src:    src,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *StandingsCache) TopN(ctx context.Context, period domain.PeriodType, key string, n int) ([]domain.Standing, error) {
	cacheKey := c.cacheKey(period, key)

	if rows, ok := c.fromCache(ctx, cacheKey); ok {
		return clip(rows, n), nil
	}

	result, err, _ := c.sf.Do(cacheKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if rows, ok := c.fromCache(ctx, cacheKey); ok {
			return rows, nil
		}

		rows, err := c.src.TopN(ctx, period, key, maxCached)
		if err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(rows); err == nil {
			c.client.Set(ctx, cacheKey, payload, c.ttlWithJitter())
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return clip(result.([]domain.Standing), n), nil
}

// Invalidate drops the cached views for all three period keys. Called after
// an attempt is recorded, so the next read reflects the new points.
func (c *StandingsCache) Invalidate(ctx context.Context, keys domain.PeriodKeys) {
	c.client.Del(ctx,
		c.cacheKey(domain.PeriodDaily, keys.Daily),
		c.cacheKey(domain.PeriodWeekly, keys.Weekly),
		c.cacheKey(domain.PeriodMonthly, keys.Monthly),
	)
}

func (c *StandingsCache) fromCache(ctx context.Context, cacheKey string) ([]domain.Standing, bool) {
	payload, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []domain.Standing
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *StandingsCache) cacheKey(period domain.PeriodType, key string) string {
	return "standings:" + string(period) + ":" + key
}

func (c *StandingsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func clip(rows []domain.Standing, n int) []domain.Standing {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
