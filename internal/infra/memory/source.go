package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
)

// StaticSource serves fixed question sets keyed by category. Useful for
// demos and tests when neither the remote API nor Postgres is configured.
type StaticSource struct {
	sets       map[string][]domain.Question
	categories []domain.Category
}

func NewStaticSource(sets map[string][]domain.Question) *StaticSource {
	categories := make([]domain.Category, 0, len(sets))
	for id := range sets {
		categories = append(categories, domain.Category{ID: id, Name: id})
	}
	return &StaticSource{sets: sets, categories: categories}
}

func (s *StaticSource) FetchQuestions(_ context.Context, categoryID string) ([]domain.Question, error) {
	questions, ok := s.sets[categoryID]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return questions, nil
}

func (s *StaticSource) Categories(_ context.Context) ([]domain.Category, error) {
	return s.categories, nil
}

// CachingSource caches fetched question sets with TTL to avoid re-hitting
// the backing source on every restart of the same category.
type CachingSource struct {
	inner app.QuestionSource
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachingSource(inner app.QuestionSource, ttl time.Duration) *CachingSource {
	return &CachingSource{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedSet),
	}
}

func (c *CachingSource) FetchQuestions(ctx context.Context, categoryID string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[categoryID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(categoryID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[categoryID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.inner.FetchQuestions(ctx, categoryID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[categoryID] = cachedSet{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *CachingSource) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
