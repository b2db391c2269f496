package feed

import (
	"strings"
)

// SourceFilter drops articles whose field does not match the include list or
// matches any exclude entry. Matching is case-insensitive substring search.
type SourceFilter struct {
	Field    string   `yaml:"field" json:"field"`
	Includes []string `yaml:"includes" json:"includes,omitempty"`
	Excludes []string `yaml:"excludes" json:"excludes,omitempty"`
}

var filterFields = map[string]bool{
	"title":   true,
	"summary": true,
	"link":    true,
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

func (f *Filterer) Run(articles []NewArticle, filters []SourceFilter) []NewArticle {
	if len(filters) == 0 {
		return articles
	}

	kept := make([]NewArticle, 0, len(articles))
	for _, article := range articles {
		if !f.isFiltered(article, filters) {
			kept = append(kept, article)
		}
	}

	return kept
}

func (f *Filterer) isFiltered(article NewArticle, filters []SourceFilter) bool {
	for _, filter := range filters {
		value := f.getFieldValue(article, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true
			}
		}
	}

	return false
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(article NewArticle, field string) string {
	switch field {
	case "title":
		return article.Title
	case "summary":
		return article.Summary
	case "link":
		return article.ExternalURL
	default:
		return ""
	}
}
