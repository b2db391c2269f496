package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/newsdeck/app/database"
	"github.com/lysyi3m/newsdeck/app/feed"
)

// SourceProvider supplies the source table and can reload it from disk.
type SourceProvider interface {
	Run() error
	GetSources() []feed.Source
}

type ArticleAggregator interface {
	Run(ctx context.Context, sources []feed.Source) ([]feed.NewArticle, error)
}

// RefreshTask aggregates every source and swaps the result into the store.
// The store is not touched until aggregation has finished.
type RefreshTask struct {
	Task
	sources    SourceProvider
	aggregator ArticleAggregator
	store      database.ArticleStore

	Count int
}

func NewRefreshTask(trigger Trigger, sources SourceProvider, aggregator ArticleAggregator, store database.ArticleStore) *RefreshTask {
	return &RefreshTask{
		Task:       NewTask(TaskTypeRefreshArticles, trigger),
		sources:    sources,
		aggregator: aggregator,
		store:      store,
	}
}

func (t *RefreshTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.sources.Run(); err != nil {
		slog.Warn("Failed to reload source table, using previous", "error", err)
	}

	sources := t.sources.GetSources()
	if len(sources) == 0 {
		return fmt.Errorf("no feed sources configured")
	}

	articles, err := t.aggregator.Run(ctx, sources)
	if err != nil {
		return fmt.Errorf("failed to aggregate feeds: %w", err)
	}

	created, err := t.store.Replace(ctx, articles)
	if err != nil {
		return fmt.Errorf("failed to store articles: %w", err)
	}

	t.Count = len(created)
	return nil
}
