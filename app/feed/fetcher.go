package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultFetchTimeout = 10 * time.Second

// SourceFetcher retrieves the raw entries of a single source.
type SourceFetcher interface {
	Fetch(ctx context.Context, source Source) ([]RawEntry, error)
}

var _ SourceFetcher = (*HTTPFetcher)(nil)

// NewHTTPClient returns the client shared by feed and page fetches. It has no
// overall timeout; every request is bounded by its source's context deadline.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4

	return &http.Client{Transport: transport}
}

type HTTPFetcher struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string
}

func NewHTTPFetcher(httpClient *http.Client, parser *Parser, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source Source) ([]RawEntry, error) {
	data, err := f.fetchFeed(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	_, entries, err := f.parser.Run(data)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (f *HTTPFetcher) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
