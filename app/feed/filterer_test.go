package feed

import (
	"testing"
)

func filterTestArticles() []NewArticle {
	return []NewArticle{
		{Title: "Go 1.24 released", Summary: "Release notes for Go", ExternalURL: "https://go.dev/blog/go1.24"},
		{Title: "Sponsored: Cloud deals", Summary: "Buy now", ExternalURL: "https://ads.example.com/deal"},
		{Title: "Rust in the kernel", Summary: "Kernel news", ExternalURL: "https://lwn.net/rust"},
	}
}

func TestFiltererNoFilters(t *testing.T) {
	articles := filterTestArticles()

	result := NewFilterer().Run(articles, nil)
	if len(result) != len(articles) {
		t.Errorf("Expected %d articles, got %d", len(articles), len(result))
	}
}

func TestFiltererRules(t *testing.T) {
	tests := []struct {
		name     string
		filters  []SourceFilter
		expected []string
	}{
		{
			name:     "title exclude",
			filters:  []SourceFilter{{Field: "title", Excludes: []string{"sponsored"}}},
			expected: []string{"Go 1.24 released", "Rust in the kernel"},
		},
		{
			name:     "title include",
			filters:  []SourceFilter{{Field: "title", Includes: []string{"go", "rust"}}},
			expected: []string{"Go 1.24 released", "Rust in the kernel"},
		},
		{
			name:     "include and exclude",
			filters:  []SourceFilter{{Field: "summary", Includes: []string{"news", "notes"}, Excludes: []string{"kernel"}}},
			expected: []string{"Go 1.24 released"},
		},
		{
			name:     "link field",
			filters:  []SourceFilter{{Field: "link", Excludes: []string{"ads.example.com"}}},
			expected: []string{"Go 1.24 released", "Rust in the kernel"},
		},
		{
			name: "multiple filters must all pass",
			filters: []SourceFilter{
				{Field: "title", Excludes: []string{"sponsored"}},
				{Field: "link", Includes: []string{"go.dev"}},
			},
			expected: []string{"Go 1.24 released"},
		},
		{
			name:     "case insensitive",
			filters:  []SourceFilter{{Field: "title", Includes: []string{"RUST"}}},
			expected: []string{"Rust in the kernel"},
		},
		{
			name:     "unknown field with include drops everything",
			filters:  []SourceFilter{{Field: "authors", Includes: []string{"someone"}}},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewFilterer().Run(filterTestArticles(), tt.filters)

			if len(result) != len(tt.expected) {
				t.Fatalf("Expected %d articles, got %d", len(tt.expected), len(result))
			}
			for i, title := range tt.expected {
				if result[i].Title != title {
					t.Errorf("Expected '%s' at %d, got '%s'", title, i, result[i].Title)
				}
			}
		})
	}
}

func TestFiltererPreservesArticleData(t *testing.T) {
	articles := filterTestArticles()
	articles[0].ImageURL = "https://go.dev/gopher.png"
	articles[0].Category = CategoryTechnology

	result := NewFilterer().Run(articles, []SourceFilter{{Field: "title", Includes: []string{"go"}}})
	if len(result) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(result))
	}
	if result[0] != articles[0] {
		t.Errorf("Expected article to be unchanged, got %+v", result[0])
	}
}
