package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/newsdeck/app/api"
	"github.com/lysyi3m/newsdeck/app/cfg"
	"github.com/lysyi3m/newsdeck/app/database"
	"github.com/lysyi3m/newsdeck/app/feed"
	"github.com/lysyi3m/newsdeck/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// help was shown
		return
	}

	setupLogger(appCfg.Debug)

	if appCfg.Generate {
		if err := generate(appCfg); err != nil {
			slog.Error("Static generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(appCfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func newAggregator(appCfg *cfg.Cfg, profile feed.Profile, mode feed.Mode) *feed.Aggregator {
	httpClient := feed.NewHTTPClient()

	fetcher := feed.NewHTTPFetcher(httpClient, feed.NewParser(), appCfg.UserAgent)
	contentExtractor := feed.NewContentExtractor(httpClient, appCfg.UserAgent)

	return feed.NewAggregator(fetcher, feed.NewNormalizer(profile), contentExtractor, feed.AggregatorOptions{
		Mode:         mode,
		MaxArticles:  appCfg.MaxArticles,
		FetchTimeout: appCfg.FetchTimeout,
	})
}

func loadSources(appCfg *cfg.Cfg) (*feed.ConfigCache, error) {
	configCache := feed.NewConfigCache(appCfg.SourcesFile)
	if err := configCache.Run(); err != nil {
		return nil, fmt.Errorf("failed to load source table: %w", err)
	}

	slog.Info("Source table loaded", "path", appCfg.SourcesFile, "sources", configCache.GetSourceCount())
	return configCache, nil
}

// generate aggregates once and writes the static JSON files.
func generate(appCfg *cfg.Cfg) error {
	configCache, err := loadSources(appCfg)
	if err != nil {
		return err
	}

	aggregator := newAggregator(appCfg, feed.StaticProfile, feed.ModeRecency)

	ctx, cancel := context.WithTimeout(context.Background(), tasks.DefaultTaskTimeout)
	defer cancel()

	articles, err := aggregator.Run(ctx, configCache.GetSources())
	if err != nil {
		return fmt.Errorf("failed to aggregate feeds: %w", err)
	}

	written, err := feed.NewGenerator().Write(appCfg.PublicDir, articles)
	if err != nil {
		return err
	}

	slog.Info("Static files generated", "dir", appCfg.PublicDir, "files", len(written), "articles", len(articles))
	return nil
}

func newStore(appCfg *cfg.Cfg) (database.ArticleStore, func(), error) {
	switch appCfg.Store {
	case cfg.StoreSQLite:
		store, err := database.OpenSQLite(appCfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return database.NewMemoryStore(), func() {}, nil
	}
}

func serve(appCfg *cfg.Cfg) error {
	slog.Info("Starting newsdeck server", "version", appCfg.Version, "store", appCfg.Store, "mode", appCfg.AggregationMode)

	mode, err := feed.ParseMode(appCfg.AggregationMode)
	if err != nil {
		return err
	}

	configCache, err := loadSources(appCfg)
	if err != nil {
		return err
	}

	store, closeStore, err := newStore(appCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	aggregator := newAggregator(appCfg, feed.LiveProfile, mode)
	refresher := tasks.NewRefresher(configCache, aggregator, store)

	scheduler, err := tasks.NewScheduler(appCfg.RefreshCron, appCfg.StartupDelay, time.Local, refresher)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(store, configCache, refresher)
	server := api.NewServer(handler, appCfg.Version, appCfg.Debug)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: tasks.DefaultTaskTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		return err
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return nil
}
