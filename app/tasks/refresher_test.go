package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/newsdeck/app/database"
	"github.com/lysyi3m/newsdeck/app/feed"
)

// MockSourceProvider implements SourceProvider for testing
type MockSourceProvider struct {
	mu        sync.Mutex
	sources   []feed.Source
	reloadErr error
	reloads   int
}

func (m *MockSourceProvider) Run() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
	return m.reloadErr
}

func (m *MockSourceProvider) GetSources() []feed.Source {
	return m.sources
}

// MockAggregator implements ArticleAggregator for testing
type MockAggregator struct {
	articles []feed.NewArticle
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (m *MockAggregator) Run(ctx context.Context, sources []feed.Source) ([]feed.NewArticle, error) {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.articles, m.err
}

func testSources() *MockSourceProvider {
	return &MockSourceProvider{sources: []feed.Source{{Name: "A", URL: "https://a.example.com/rss", Category: feed.CategoryNews}}}
}

func testArticles(n int) []feed.NewArticle {
	articles := make([]feed.NewArticle, n)
	for i := range articles {
		articles[i] = feed.NewArticle{Title: "Article", Category: feed.CategoryNews, ExternalURL: "#", PublishedAt: time.Now(), Source: "A"}
	}
	return articles
}

func TestRefresherReplacesStore(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	if _, err := store.Create(ctx, testArticles(5)); err != nil {
		t.Fatal(err)
	}

	sources := testSources()
	refresher := NewRefresher(sources, &MockAggregator{articles: testArticles(3)}, store)

	count, err := refresher.Refresh(ctx, TriggerManual)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}

	stored, _ := store.Count(ctx)
	if stored != 3 {
		t.Errorf("Expected 3 stored articles, got %d", stored)
	}
	if sources.reloads != 1 {
		t.Errorf("Expected source table to be reloaded once, got %d", sources.reloads)
	}

	state := refresher.Snapshot()
	if state.Running || state.LastTrigger != TriggerManual || state.LastCount != 3 || state.LastError != "" {
		t.Errorf("Unexpected run state: %+v", state)
	}
	if state.LastCompletedAt.IsZero() {
		t.Error("Expected completion time to be recorded")
	}
}

func TestRefresherFailureKeepsStore(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	if _, err := store.Create(ctx, testArticles(4)); err != nil {
		t.Fatal(err)
	}

	aggregator := &MockAggregator{err: feed.ErrAllSourcesFailed}
	refresher := NewRefresher(testSources(), aggregator, store)

	_, err := refresher.Refresh(ctx, TriggerScheduled)
	if !errors.Is(err, feed.ErrAllSourcesFailed) {
		t.Fatalf("Expected ErrAllSourcesFailed, got %v", err)
	}

	stored, _ := store.Count(ctx)
	if stored != 4 {
		t.Errorf("Expected store to be untouched with 4 articles, got %d", stored)
	}

	state := refresher.Snapshot()
	if state.LastError == "" {
		t.Error("Expected last error to be recorded")
	}
}

func TestRefresherReloadErrorUsesPreviousTable(t *testing.T) {
	sources := testSources()
	sources.reloadErr = errors.New("bad yaml")

	refresher := NewRefresher(sources, &MockAggregator{articles: testArticles(2)}, database.NewMemoryStore())

	count, err := refresher.Refresh(context.Background(), TriggerManual)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestRefresherNoSources(t *testing.T) {
	refresher := NewRefresher(&MockSourceProvider{}, &MockAggregator{}, database.NewMemoryStore())

	if _, err := refresher.Refresh(context.Background(), TriggerManual); err == nil {
		t.Error("Expected error when no sources are configured")
	}
}

func TestRefresherRejectsOverlappingRuns(t *testing.T) {
	aggregator := &MockAggregator{
		articles: testArticles(2),
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	store := database.NewMemoryStore()
	refresher := NewRefresher(testSources(), aggregator, store)

	type result struct {
		count int
		err   error
	}
	first := make(chan result, 1)
	go func() {
		count, err := refresher.Refresh(context.Background(), TriggerScheduled)
		first <- result{count, err}
	}()

	<-aggregator.started

	if !refresher.Snapshot().Running {
		t.Error("Expected running state during refresh")
	}

	_, err := refresher.Refresh(context.Background(), TriggerManual)
	if !errors.Is(err, ErrRefreshInProgress) {
		t.Errorf("Expected ErrRefreshInProgress, got %v", err)
	}

	close(aggregator.release)

	r := <-first
	if r.err != nil || r.count != 2 {
		t.Errorf("Expected first refresh to store 2 articles, got %d, %v", r.count, r.err)
	}

	// guard is released once the run completes
	aggregator.started = nil
	if _, err := refresher.Refresh(context.Background(), TriggerManual); err != nil {
		t.Errorf("Expected refresh after completion to succeed, got %v", err)
	}
}

func TestRefreshTaskMetadata(t *testing.T) {
	task := NewRefreshTask(TriggerStartup, testSources(), &MockAggregator{}, database.NewMemoryStore())

	if task.GetID() == "" {
		t.Error("Expected task id")
	}
	if task.GetType() != TaskTypeRefreshArticles {
		t.Errorf("Expected type %s, got %s", TaskTypeRefreshArticles, task.GetType())
	}
	if task.GetTrigger() != TriggerStartup {
		t.Errorf("Expected trigger startup, got %s", task.GetTrigger())
	}
	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	task.Start()
	time.Sleep(time.Millisecond)
	if task.GetDuration() <= 0 {
		t.Error("Expected positive duration after start")
	}
}

func TestRefreshTaskCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewRefreshTask(TriggerManual, testSources(), &MockAggregator{}, database.NewMemoryStore())
	if err := task.Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
