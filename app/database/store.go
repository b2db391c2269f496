package database

import (
	"context"
	"sort"

	"github.com/lysyi3m/newsdeck/app/feed"
)

// ArticleStore keeps the current article set. Every list is ordered by
// publishedAt, newest first.
type ArticleStore interface {
	List(ctx context.Context) ([]feed.Article, error)
	ListByCategory(ctx context.Context, category feed.Category) ([]feed.Article, error)
	Create(ctx context.Context, articles []feed.NewArticle) ([]feed.Article, error)
	Clear(ctx context.Context) error
	// Replace clears the store and inserts articles as one step; readers see
	// either the old set or the new one.
	Replace(ctx context.Context, articles []feed.NewArticle) ([]feed.Article, error)
	Count(ctx context.Context) (int, error)
}

func sortByRecency(articles []feed.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
