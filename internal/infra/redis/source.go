// Package redis caches normalized question sets in Redis so restarts and
// multiple gateway instances can share fetched categories.
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
)

// QuestionCache stores each category's ordered question set as a single JSON
// value under quiz:category:{id}:questions. A hash per question would lose
// the question order, which the session contract fixes at fetch time.
type QuestionCache struct {
	client *redis.Client
	inner  app.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, inner app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) FetchQuestions(ctx context.Context, categoryID string) ([]domain.Question, error) {
	key := c.key(categoryID)

	if questions, ok := c.lookup(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(categoryID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if questions, ok := c.lookup(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.inner.FetchQuestions(ctx, categoryID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// best-effort: a failed cache write must not fail the fetch
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	if len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) key(categoryID string) string {
	return "quiz:category:" + categoryID + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
