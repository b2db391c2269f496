package api

import (
	"context"

	"github.com/lysyi3m/newsdeck/app/database"
	"github.com/lysyi3m/newsdeck/app/feed"
	"github.com/lysyi3m/newsdeck/app/tasks"
)

type RefresherInterface interface {
	Refresh(ctx context.Context, trigger tasks.Trigger) (int, error)
	Snapshot() tasks.RunState
}

var _ RefresherInterface = (*tasks.Refresher)(nil)

type SourceListerInterface interface {
	GetSources() []feed.Source
	GetSourceCount() int
}

var _ SourceListerInterface = (*feed.ConfigCache)(nil)

type Handler struct {
	store     database.ArticleStore
	sources   SourceListerInterface
	refresher RefresherInterface
}

type messageResponse struct {
	Message string `json:"message"`
}

type refreshResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}
