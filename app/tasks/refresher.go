package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/newsdeck/app/database"
)

var ErrRefreshInProgress = errors.New("refresh already in progress")

// RunState is a snapshot of the refresh lifecycle.
type RunState struct {
	Running         bool      `json:"running"`
	CurrentTrigger  Trigger   `json:"currentTrigger,omitempty"`
	StartedAt       time.Time `json:"startedAt,omitempty"`
	LastTrigger     Trigger   `json:"lastTrigger,omitempty"`
	LastCompletedAt time.Time `json:"lastCompletedAt,omitempty"`
	LastDurationMS  int64     `json:"lastDurationMs"`
	LastCount       int       `json:"lastCount"`
	LastError       string    `json:"lastError,omitempty"`
}

// Refresher runs refresh tasks one at a time. A refresh requested while
// another is running is rejected with ErrRefreshInProgress.
type Refresher struct {
	sources    SourceProvider
	aggregator ArticleAggregator
	store      database.ArticleStore
	timeout    time.Duration

	mu      sync.Mutex
	running bool
	state   RunState
}

func NewRefresher(sources SourceProvider, aggregator ArticleAggregator, store database.ArticleStore) *Refresher {
	return &Refresher{
		sources:    sources,
		aggregator: aggregator,
		store:      store,
		timeout:    DefaultTaskTimeout,
	}
}

// Refresh runs one refresh and returns the number of stored articles.
func (r *Refresher) Refresh(ctx context.Context, trigger Trigger) (int, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return 0, ErrRefreshInProgress
	}
	r.running = true
	r.state.Running = true
	r.state.CurrentTrigger = trigger
	r.state.StartedAt = time.Now()
	r.mu.Unlock()

	task := NewRefreshTask(trigger, r.sources, r.aggregator, r.store)
	task.Start()

	taskCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := task.Execute(taskCtx)

	r.mu.Lock()
	r.running = false
	r.state.Running = false
	r.state.CurrentTrigger = ""
	r.state.LastTrigger = trigger
	r.state.LastCompletedAt = time.Now()
	r.state.LastDurationMS = task.GetDuration().Milliseconds()
	if err != nil {
		r.state.LastError = err.Error()
	} else {
		r.state.LastError = ""
		r.state.LastCount = task.Count
	}
	r.mu.Unlock()

	if err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "trigger", string(task.GetTrigger()), "error", err)
		return 0, err
	}

	slog.Info("Task completed", "type", string(task.GetType()), "id", task.GetID(), "trigger", string(task.GetTrigger()), "articles", task.Count, "duration", task.GetDuration())
	return task.Count, nil
}

func (r *Refresher) Snapshot() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
