package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/infra/memory"
)

func TestQuestionCacheStoresInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingSource{
		QuestionSource: memory.NewStaticSource(map[string][]domain.Question{
			"general": sampleQuestions(),
		}),
	}
	cache := NewQuestionCache(client, inner, time.Minute)

	questions, err := cache.FetchQuestions(context.Background(), "general")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 2 || questions[1].CorrectIndex != 0 {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if inner.calls != 1 {
		t.Fatalf("expected source called once, got %d", inner.calls)
	}
	if !mr.Exists("quiz:category:general:questions") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit Redis, source not incremented.
	cached, err := cache.FetchQuestions(context.Background(), "general")
	if err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", inner.calls)
	}
	if len(cached) != 2 || cached[0].ID != questions[0].ID {
		t.Fatalf("cached set lost question order: %+v", cached)
	}
}

func TestQuestionCacheSharedAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	static := memory.NewStaticSource(map[string][]domain.Question{"general": sampleQuestions()})

	first := NewQuestionCache(client, &countingSource{QuestionSource: static}, time.Minute)
	if _, err := first.FetchQuestions(context.Background(), "general"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	// A fresh instance over the same Redis must not hit its source at all.
	cold := &countingSource{QuestionSource: static}
	second := NewQuestionCache(client, cold, time.Minute)
	if _, err := second.FetchQuestions(context.Background(), "general"); err != nil {
		t.Fatalf("fetch via shared cache: %v", err)
	}
	if cold.calls != 0 {
		t.Fatalf("expected shared cache hit, source calls=%d", cold.calls)
	}
}

func TestQuestionCachePropagatesSourceErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewQuestionCache(client, memory.NewStaticSource(nil), time.Minute)

	if _, err := cache.FetchQuestions(context.Background(), "nope"); err != domain.ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

type countingSource struct {
	app.QuestionSource
	calls int
}

func (s *countingSource) FetchQuestions(ctx context.Context, categoryID string) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.FetchQuestions(ctx, categoryID)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:           "q1",
			Prompt:       "What is 2 + 2?",
			Options:      []string{"3", "4"},
			CorrectIndex: 1,
			Seconds:      15,
			Points:       1,
		},
		{
			ID:           "q2",
			Prompt:       "Pick the first option",
			Options:      []string{"First", "Second"},
			CorrectIndex: 0,
			Seconds:      15,
			Points:       1,
		},
	}
}
