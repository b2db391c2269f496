package feed

import (
	"errors"
	"fmt"
	"time"
)

type Category string

const (
	CategoryNews          Category = "news"
	CategoryGaming        Category = "gaming"
	CategoryTechnology    Category = "technology"
	CategoryEntertainment Category = "entertainment"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryNews, CategoryGaming, CategoryTechnology, CategoryEntertainment}

var ErrUnknownCategory = errors.New("unknown category")

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Source is one row of the feed source table.
type Source struct {
	Name          string   `yaml:"name" json:"name"`
	URL           string   `yaml:"url" json:"url"`
	Category      Category `yaml:"-" json:"category"`
	Enabled       *bool    `yaml:"enabled" json:"enabled,omitempty"`
	MaxItems      int      `yaml:"max_items" json:"maxItems"`
	Timeout       int      `yaml:"timeout" json:"timeout"` // seconds
	ExtractImages bool     `yaml:"extract_images" json:"extractImages"`

	Filters []SourceFilter `yaml:"filters" json:"filters,omitempty"`
}

func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s Source) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultFetchTimeout
	}
	return time.Duration(s.Timeout) * time.Second
}

// Raw entry types

type Enclosure struct {
	URL  string
	Type string
}

type MediaRef struct {
	URL string
}

// RawEntry is a parsed feed entry before normalization. Optional structures
// are nil when the feed did not carry them.
type RawEntry struct {
	Title          string
	Link           string
	Description    string
	ContentEncoded string
	Content        string
	ContentSnippet string
	Published      *time.Time

	Enclosure      *Enclosure
	MediaContent   *MediaRef
	MediaThumbnail *MediaRef
}

// NewArticle is a normalized article that has not been assigned an id yet.
type NewArticle struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Category    Category  `json:"category"`
	ExternalURL string    `json:"externalUrl"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
}

// Article is a normalized article with its assigned id.
type Article struct {
	ID string `json:"id"`
	NewArticle
}
