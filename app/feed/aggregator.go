package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

// Mode selects how the merged article list is ordered before the cap is applied.
type Mode string

const (
	ModeShuffled Mode = "shuffled"
	ModeRecency  Mode = "recency"
)

const DefaultMaxArticles = 50

// MaxImageFetches bounds concurrent article page fetches per source.
const MaxImageFetches = 4

var ErrAllSourcesFailed = errors.New("all feed sources failed")

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeShuffled, ModeRecency:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown aggregation mode %q", s)
	}
}

// AggregatorOptions configures ordering, the cap and the fetch timeout used
// for sources without their own.
type AggregatorOptions struct {
	Mode         Mode
	MaxArticles  int
	FetchTimeout time.Duration
}

// Aggregator fetches every enabled source, normalizes the entries and merges
// them into one bounded list. A failing source contributes no articles.
type Aggregator struct {
	fetcher        SourceFetcher
	normalizer     *Normalizer
	filterer       *Filterer
	imageExtractor ImageFinder
	options        AggregatorOptions
	shuffle        func(n int, swap func(i, j int))
}

func NewAggregator(fetcher SourceFetcher, normalizer *Normalizer, imageExtractor ImageFinder, options AggregatorOptions) *Aggregator {
	if options.MaxArticles <= 0 {
		options.MaxArticles = DefaultMaxArticles
	}
	if options.Mode == "" {
		options.Mode = ModeShuffled
	}
	if options.FetchTimeout <= 0 {
		options.FetchTimeout = DefaultFetchTimeout
	}

	return &Aggregator{
		fetcher:        fetcher,
		normalizer:     normalizer,
		filterer:       NewFilterer(),
		imageExtractor: imageExtractor,
		options:        options,
		shuffle:        fisherYates,
	}
}

type sourceResult struct {
	articles []NewArticle
	err      error
}

func (a *Aggregator) Run(ctx context.Context, sources []Source) ([]NewArticle, error) {
	enabled := make([]Source, 0, len(sources))
	for _, source := range sources {
		if source.IsEnabled() {
			enabled = append(enabled, source)
		}
	}

	results := make([]sourceResult, len(enabled))

	var wg sync.WaitGroup
	for i, source := range enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.runSource(ctx, source)
		}()
	}
	wg.Wait()

	var articles []NewArticle
	failed := 0
	for i, result := range results {
		if result.err != nil {
			failed++
			slog.Warn("Feed source failed", "source", enabled[i].Name, "url", enabled[i].URL, "error", result.err)
			continue
		}
		articles = append(articles, result.articles...)
	}

	if len(enabled) > 0 && failed == len(enabled) {
		return nil, ErrAllSourcesFailed
	}

	a.order(articles)

	if len(articles) > a.options.MaxArticles {
		articles = articles[:a.options.MaxArticles]
	}

	slog.Info("Aggregation completed",
		"mode", a.options.Mode,
		"sources", len(enabled),
		"failed", failed,
		"articles", len(articles))

	return articles, nil
}

func (a *Aggregator) runSource(ctx context.Context, source Source) (result sourceResult) {
	defer func() {
		if r := recover(); r != nil {
			result = sourceResult{err: fmt.Errorf("panic while processing source: %v", r)}
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeoutFor(source))
	defer cancel()

	start := time.Now()
	entries, err := a.fetcher.Fetch(fetchCtx, source)
	if err != nil {
		return sourceResult{err: err}
	}

	articles := a.filterer.Run(a.normalizer.Run(entries, source), source.Filters)

	if source.ExtractImages && a.imageExtractor != nil {
		a.fillMissingImages(ctx, source, articles)
	}

	slog.Debug("Feed source processed", "source", source.Name, "entries", len(entries), "articles", len(articles), "duration", time.Since(start))
	return sourceResult{articles: articles}
}

// fillMissingImages looks up lead images for articles that have none. Pages
// are fetched concurrently and the whole backfill shares one deadline.
func (a *Aggregator) fillMissingImages(ctx context.Context, source Source, articles []NewArticle) {
	extractCtx, cancel := context.WithTimeout(ctx, a.timeoutFor(source))
	defer cancel()

	slots := make(chan struct{}, MaxImageFetches)
	var wg sync.WaitGroup
	for i := range articles {
		if articles[i].ImageURL != "" || articles[i].ExternalURL == PlaceholderLink {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case slots <- struct{}{}:
				defer func() { <-slots }()
			case <-extractCtx.Done():
				return
			}

			imageURL, err := a.imageExtractor.FindImage(extractCtx, articles[i].ExternalURL)
			if err != nil {
				slog.Debug("Image extraction failed", "source", source.Name, "url", articles[i].ExternalURL, "error", err)
				return
			}
			if isWebURL(imageURL) && !isExcludedImage(imageURL) {
				articles[i].ImageURL = imageURL
			}
		}()
	}
	wg.Wait()
}

func (a *Aggregator) timeoutFor(source Source) time.Duration {
	if source.Timeout > 0 {
		return source.GetTimeout()
	}
	return a.options.FetchTimeout
}

func (a *Aggregator) order(articles []NewArticle) {
	switch a.options.Mode {
	case ModeRecency:
		SortByRecency(articles)
	default:
		a.shuffle(len(articles), func(i, j int) {
			articles[i], articles[j] = articles[j], articles[i]
		})
	}
}

// fisherYates walks from the last index down, swapping each element with a
// uniformly chosen index in [0, i].
func fisherYates(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, rand.IntN(i+1))
	}
}

// SortByRecency orders articles newest first; ties keep their relative order.
func SortByRecency(articles []NewArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
