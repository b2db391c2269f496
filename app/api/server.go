package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsdeck/app/feed"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, version string, debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, version)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, version string) {
	api := r.Group("/api")
	{
		api.GET("/articles", handler.GetArticles)
		api.GET("/articles/:category", handler.GetArticlesByCategory)
		api.POST("/articles/refresh", handler.RefreshArticles)
		api.GET("/sources", handler.GetSources)
	}

	r.GET("/health", handler.GetHealth)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "newsdeck",
			"version":     version,
			"description": "News feed aggregator serving normalized articles by category",
			"categories":  feed.Categories,
			"endpoints": map[string]string{
				"articles": "/api/articles",
				"category": "/api/articles/<category>",
				"refresh":  "/api/articles/refresh (POST)",
				"sources":  "/api/sources",
				"health":   "/health",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}
