package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const fetcherTestFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Served Feed</title>
    <item><title>One</title><link>https://example.com/1</link></item>
    <item><title>Two</title><link>https://example.com/2</link></item>
  </channel>
</rss>`

func TestHTTPFetcherFetch(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(fetcherTestFeed))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), NewParser(), "newsdeck-test/1.0")
	entries, err := fetcher.Fetch(context.Background(), Source{Name: "Served", URL: server.URL})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
	if userAgent != "newsdeck-test/1.0" {
		t.Errorf("Expected user agent to be sent, got '%s'", userAgent)
	}
}

func TestHTTPFetcherNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), NewParser(), "test")
	_, err := fetcher.Fetch(context.Background(), Source{URL: server.URL})
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status code in error, got: %v", err)
	}
}

func TestHTTPFetcherInvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a feed</html>"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), NewParser(), "test")
	if _, err := fetcher.Fetch(context.Background(), Source{URL: server.URL}); err == nil {
		t.Error("Expected parse error")
	}
}

func TestHTTPFetcherRespectsContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fetcher := NewHTTPFetcher(server.Client(), NewParser(), "test")
	start := time.Now()
	if _, err := fetcher.Fetch(ctx, Source{URL: server.URL}); err == nil {
		t.Error("Expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected fetch to stop at the deadline, took %v", elapsed)
	}
}

func TestAggregatorSourceTimeoutOutlastsDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(800 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(fetcherTestFeed))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(NewHTTPClient(), NewParser(), "test")
	aggregator := NewAggregator(fetcher, NewNormalizer(LiveProfile), nil, AggregatorOptions{
		Mode:         ModeRecency,
		FetchTimeout: 300 * time.Millisecond,
	})

	articles, err := aggregator.Run(context.Background(), []Source{
		{Name: "Patient", URL: server.URL, Timeout: 3},
		{Name: "Default", URL: server.URL + "/default"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles from the source with its own timeout, got %d", len(articles))
	}
	for _, article := range articles {
		if article.Source != "Patient" {
			t.Errorf("Expected only 'Patient' articles, got one from '%s'", article.Source)
		}
	}
}
