package refdata

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

type mockWarehouse struct {
	fetchArticles  func(ctx context.Context) ([]models.Article, error)
	fetchTagScores func(ctx context.Context) ([]models.TagScore, error)
	fetchTraffic   func(ctx context.Context) ([]models.TrafficRow, error)
}

func (m *mockWarehouse) FetchArticles(ctx context.Context) ([]models.Article, error) {
	if m.fetchArticles != nil {
		return m.fetchArticles(ctx)
	}

	return nil, nil
}

func (m *mockWarehouse) FetchTagScores(ctx context.Context) ([]models.TagScore, error) {
	if m.fetchTagScores != nil {
		return m.fetchTagScores(ctx)
	}

	return nil, nil
}

func (m *mockWarehouse) FetchTraffic(ctx context.Context) ([]models.TrafficRow, error) {
	if m.fetchTraffic != nil {
		return m.fetchTraffic(ctx)
	}

	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("loads once within the TTL", func(t *testing.T) {
		calls := 0
		wh := &mockWarehouse{
			fetchArticles: func(context.Context) ([]models.Article, error) {
				calls++

				return []models.Article{{ArticleID: "a1", SiteDomain: "kk.no"}}, nil
			},
		}

		c := NewCache(wh, testLogger())

		for range 3 {
			snap, err := c.Get(ctx)
			require.NoError(t, err)
			require.Len(t, snap.Articles, 1)
		}

		assert.Equal(t, 1, calls)
	})

	t.Run("refreshes after expiry", func(t *testing.T) {
		calls := 0
		wh := &mockWarehouse{
			fetchArticles: func(context.Context) ([]models.Article, error) {
				calls++

				return nil, nil
			},
		}

		now := time.Now()
		c := NewCache(wh, testLogger(),
			WithTTL(time.Hour),
			WithClock(func() time.Time { return now }),
		)

		_, err := c.Get(ctx)
		require.NoError(t, err)

		now = now.Add(time.Hour)

		_, err = c.Get(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, calls)
	})

	t.Run("serves the stale snapshot when a refresh fails", func(t *testing.T) {
		calls := 0
		wh := &mockWarehouse{
			fetchArticles: func(context.Context) ([]models.Article, error) {
				calls++
				if calls > 1 {
					return nil, errors.New("warehouse down")
				}

				return []models.Article{{ArticleID: "a1", SiteDomain: "kk.no"}}, nil
			},
		}

		now := time.Now()
		c := NewCache(wh, testLogger(),
			WithTTL(time.Hour),
			WithClock(func() time.Time { return now }),
		)

		_, err := c.Get(ctx)
		require.NoError(t, err)

		now = now.Add(2 * time.Hour)

		snap, err := c.Get(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Articles, 1)
		assert.Equal(t, "a1", snap.Articles[0].ArticleID)
	})

	t.Run("fails when the first load fails", func(t *testing.T) {
		wh := &mockWarehouse{
			fetchArticles: func(context.Context) ([]models.Article, error) {
				return nil, errors.New("warehouse down")
			},
		}

		_, err := NewCache(wh, testLogger()).Get(ctx)
		require.Error(t, err)
	})

	t.Run("returned snapshots are private copies", func(t *testing.T) {
		wh := &mockWarehouse{
			fetchArticles: func(context.Context) ([]models.Article, error) {
				return []models.Article{{ArticleID: "a1", SiteDomain: "kk.no", Embedding: []float32{1, 0}}}, nil
			},
		}

		c := NewCache(wh, testLogger())

		first, err := c.Get(ctx)
		require.NoError(t, err)

		first.Articles[0].ArticleID = "mutated"
		first.Articles[0].Embedding[0] = 42

		second, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a1", second.Articles[0].ArticleID)
		assert.Equal(t, float32(1), second.Articles[0].Embedding[0])
	})

	t.Run("concurrent cold reads coalesce into one load", func(t *testing.T) {
		var (
			mu    sync.Mutex
			calls int
		)

		wh := &mockWarehouse{
			fetchArticles: func(context.Context) ([]models.Article, error) {
				mu.Lock()
				calls++
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				return nil, nil
			},
		}

		c := NewCache(wh, testLogger())

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := c.Get(ctx)
				assert.NoError(t, err)
			}()
		}

		wg.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, calls)
	})

	t.Run("invalidate forces a refresh", func(t *testing.T) {
		calls := 0
		wh := &mockWarehouse{
			fetchArticles: func(context.Context) ([]models.Article, error) {
				calls++

				return nil, nil
			},
		}

		c := NewCache(wh, testLogger())

		_, err := c.Get(ctx)
		require.NoError(t, err)

		c.Invalidate()

		_, err = c.Get(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, calls)
	})
}
