// Package refdata caches the warehouse reference data every scoring run needs:
// recent articles with embeddings, the per-site tag frequency table and the
// early-traffic sums. One snapshot serves all events until its TTL expires.
package refdata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = 3600 * time.Second

// Warehouse loads the reference tables backing a snapshot.
type Warehouse interface {
	FetchArticles(ctx context.Context) ([]models.Article, error)
	FetchTagScores(ctx context.Context) ([]models.TagScore, error)
	FetchTraffic(ctx context.Context) ([]models.TrafficRow, error)
}

// Snapshot is one consistent view of the reference data. Instances handed out
// by the cache are private copies; callers may mutate them freely.
type Snapshot struct {
	Articles  []models.Article
	TagScores []models.TagScore
	Traffic   []models.TrafficRow
	LoadedAt  time.Time
}

func (s *Snapshot) clone() *Snapshot {
	out := &Snapshot{
		Articles:  make([]models.Article, len(s.Articles)),
		TagScores: make([]models.TagScore, len(s.TagScores)),
		Traffic:   make([]models.TrafficRow, len(s.Traffic)),
		LoadedAt:  s.LoadedAt,
	}

	for i := range s.Articles {
		out.Articles[i] = s.Articles[i].Clone()
	}

	copy(out.TagScores, s.TagScores)
	copy(out.Traffic, s.Traffic)

	return out
}

// Cache holds the current snapshot and refreshes it when stale. Concurrent
// refreshes for an expired snapshot are coalesced into a single warehouse
// round trip; when that round trip fails and an older snapshot exists, the
// stale snapshot keeps serving and the failure is only logged.
type Cache struct {
	warehouse Warehouse
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	snapshot *Snapshot
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the snapshot lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a snapshot cache over the given warehouse.
func NewCache(warehouse Warehouse, logger *slog.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		warehouse: warehouse,
		ttl:       DefaultTTL,
		logger:    logger,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns a fresh snapshot, refreshing from the warehouse when the cached
// one has expired. The returned snapshot is a private copy.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if s := c.current(); s != nil {
		return s.clone(), nil
	}

	v, err, _ := c.group.Do("snapshot", func() (any, error) {
		// A refresh that finished while this call waited on singleflight
		// already produced a fresh snapshot.
		if s := c.current(); s != nil {
			return s, nil
		}

		fresh, loadErr := c.load(ctx)
		if loadErr != nil {
			c.mu.Lock()
			stale := c.snapshot
			c.mu.Unlock()

			if stale == nil {
				return nil, loadErr
			}

			c.logger.Error("reference data refresh failed, serving stale snapshot",
				"error", loadErr,
				"snapshot_age", c.now().Sub(stale.LoadedAt).String(),
			)

			return stale, nil
		}

		c.mu.Lock()
		c.snapshot = fresh
		c.mu.Unlock()

		c.logger.Info("reference data refreshed",
			"articles", len(fresh.Articles),
			"tag_scores", len(fresh.TagScores),
			"traffic_rows", len(fresh.Traffic),
		)

		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Snapshot).clone(), nil
}

// Invalidate drops the cached snapshot so the next Get refreshes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
}

// current returns the cached snapshot when it is still fresh, nil otherwise.
func (c *Cache) current() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil || c.now().Sub(c.snapshot.LoadedAt) >= c.ttl {
		return nil
	}

	return c.snapshot
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	articles, err := c.warehouse.FetchArticles(ctx)
	if err != nil {
		return nil, err
	}

	tagScores, err := c.warehouse.FetchTagScores(ctx)
	if err != nil {
		return nil, err
	}

	traffic, err := c.warehouse.FetchTraffic(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Articles:  articles,
		TagScores: tagScores,
		Traffic:   traffic,
		LoadedAt:  c.now(),
	}, nil
}
