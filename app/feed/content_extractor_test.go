package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const articlePageHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Test Article</title>
	<meta property="og:image" content="https://cdn.example.com/lead.jpg">
</head>
<body>
	<header><nav>Navigation</nav></header>
	<main>
		<article>
			<h1>Main Article Title</h1>
			<p>This is the main content of the article. It contains several paragraphs of meaningful text that should be extracted by the readability algorithm.</p>
			<p>This is another paragraph with more content. The readability algorithm should identify this as the main content area and extract it properly.</p>
		</article>
	</main>
	<footer><p>Copyright 2024</p></footer>
</body>
</html>`

const plainPageHTML = `<!DOCTYPE html>
<html>
<head><title>Plain</title></head>
<body><article><p>Just some text without any pictures at all, long enough to be treated as the content of the page.</p></article></body>
</html>`

func TestContentExtractorRun(t *testing.T) {
	extractor := NewContentExtractor(http.DefaultClient, "test")

	image, err := extractor.Run([]byte(articlePageHTML), "https://example.com/article")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if image != "https://cdn.example.com/lead.jpg" {
		t.Errorf("Expected og:image, got '%s'", image)
	}
}

func TestContentExtractorRunWithoutImage(t *testing.T) {
	extractor := NewContentExtractor(http.DefaultClient, "test")

	if _, err := extractor.Run([]byte(plainPageHTML), "https://example.com/plain"); err == nil {
		t.Error("Expected error when the page has no image")
	}
}

func TestContentExtractorRunEmptyData(t *testing.T) {
	extractor := NewContentExtractor(http.DefaultClient, "test")

	for _, data := range [][]byte{nil, {}} {
		if _, err := extractor.Run(data, "https://example.com"); err == nil {
			t.Error("Expected error for empty data")
		}
	}
}

func TestContentExtractorFindImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articlePageHTML))
	})
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	extractor := NewContentExtractor(server.Client(), "test")

	image, err := extractor.FindImage(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if image != "https://cdn.example.com/lead.jpg" {
		t.Errorf("Expected og:image, got '%s'", image)
	}

	if _, err := extractor.FindImage(context.Background(), server.URL+"/data.json"); err == nil {
		t.Error("Expected error for non-HTML content")
	}
	if _, err := extractor.FindImage(context.Background(), server.URL+"/missing"); err == nil {
		t.Error("Expected error for 404 page")
	}
}
