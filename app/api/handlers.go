package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsdeck/app/database"
	"github.com/lysyi3m/newsdeck/app/feed"
	"github.com/lysyi3m/newsdeck/app/tasks"
)

func NewHandler(store database.ArticleStore, sources SourceListerInterface, refresher RefresherInterface) *Handler {
	return &Handler{
		store:     store,
		sources:   sources,
		refresher: refresher,
	}
}

func (h *Handler) GetArticles(c *gin.Context) {
	articles, err := h.store.List(c.Request.Context())
	if err != nil {
		slog.Error("Store error", "operation", "list_articles", "error", err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to fetch articles"})
		return
	}

	c.Header("X-Article-Count", strconv.Itoa(len(articles)))
	c.JSON(http.StatusOK, articles)
}

func (h *Handler) GetArticlesByCategory(c *gin.Context) {
	category, err := feed.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: "Unknown category: " + c.Param("category")})
		return
	}

	articles, err := h.store.ListByCategory(c.Request.Context(), category)
	if err != nil {
		slog.Error("Store error", "operation", "list_articles_by_category", "category", string(category), "error", err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to fetch articles by category"})
		return
	}

	c.Header("X-Article-Count", strconv.Itoa(len(articles)))
	c.JSON(http.StatusOK, articles)
}

func (h *Handler) RefreshArticles(c *gin.Context) {
	// the refresh outlives a client that disconnects mid-request
	ctx := context.WithoutCancel(c.Request.Context())

	count, err := h.refresher.Refresh(ctx, tasks.TriggerManual)
	if errors.Is(err, tasks.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, messageResponse{Message: "Feed refresh already in progress"})
		return
	}
	if err != nil {
		slog.Error("Manual refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to refresh feeds"})
		return
	}

	c.JSON(http.StatusOK, refreshResponse{
		Message: "Feed refresh completed successfully",
		Count:   count,
	})
}

func (h *Handler) GetSources(c *gin.Context) {
	c.JSON(http.StatusOK, h.sources.GetSources())
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if articleCount, err := h.store.Count(c.Request.Context()); err == nil {
		health["articles"] = articleCount
	}

	health["loaded_sources"] = h.sources.GetSourceCount()
	health["refresh"] = h.refresher.Snapshot()

	c.JSON(http.StatusOK, health)
}
