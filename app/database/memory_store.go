package database

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/lysyi3m/newsdeck/app/feed"
)

var _ ArticleStore = (*MemoryStore)(nil)

// MemoryStore holds articles in process memory in insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	articles []feed.Article
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) List(ctx context.Context) ([]feed.Article, error) {
	s.mu.RLock()
	articles := make([]feed.Article, len(s.articles))
	copy(articles, s.articles)
	s.mu.RUnlock()

	sortByRecency(articles)
	return articles, nil
}

func (s *MemoryStore) ListByCategory(ctx context.Context, category feed.Category) ([]feed.Article, error) {
	s.mu.RLock()
	articles := lo.Filter(s.articles, func(a feed.Article, _ int) bool {
		return a.Category == category
	})
	s.mu.RUnlock()

	sortByRecency(articles)
	return articles, nil
}

func (s *MemoryStore) Create(ctx context.Context, articles []feed.NewArticle) ([]feed.Article, error) {
	created := withIDs(articles)

	s.mu.Lock()
	s.articles = append(s.articles, created...)
	s.mu.Unlock()

	return created, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.articles = nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Replace(ctx context.Context, articles []feed.NewArticle) ([]feed.Article, error) {
	created := withIDs(articles)

	s.mu.Lock()
	s.articles = append([]feed.Article(nil), created...)
	s.mu.Unlock()

	return created, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles), nil
}

func withIDs(articles []feed.NewArticle) []feed.Article {
	return lo.Map(articles, func(a feed.NewArticle, _ int) feed.Article {
		return feed.Article{ID: uuid.NewString(), NewArticle: a}
	})
}
