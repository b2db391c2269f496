package feed

import (
	"cmp"
	"strings"
	"time"
)

const (
	DefaultPerSourceLimit = 10
	PlaceholderLink       = "#"
)

// Profile holds the per-call-path normalization settings.
type Profile struct {
	Name             string
	TitlePlaceholder string
	SummaryLength    int
	SummaryFallback  string
	Limit            int

	// summaryCandidates lists the entry fields tried for the summary, in order.
	summaryCandidates func(entry RawEntry) []string
}

// LiveProfile is used by the server refresh path.
var LiveProfile = Profile{
	Name:             "live",
	TitlePlaceholder: "Untitled",
	SummaryLength:    130,
	Limit:            DefaultPerSourceLimit,
	summaryCandidates: func(entry RawEntry) []string {
		return []string{entry.ContentSnippet, cmp.Or(entry.Content, entry.Description), entry.Title}
	},
}

// StaticProfile is used when generating the static JSON files.
var StaticProfile = Profile{
	Name:             "static",
	TitlePlaceholder: "No title",
	SummaryLength:    200,
	SummaryFallback:  "No summary available",
	Limit:            5,
	summaryCandidates: func(entry RawEntry) []string {
		return []string{entry.ContentSnippet, entry.Description}
	},
}

type Normalizer struct {
	profile   Profile
	sanitizer *Sanitizer
	now       func() time.Time
}

func NewNormalizer(profile Profile) *Normalizer {
	if profile.summaryCandidates == nil {
		profile.summaryCandidates = LiveProfile.summaryCandidates
	}
	return &Normalizer{
		profile:   profile,
		sanitizer: NewSanitizer(profile.SummaryLength, profile.SummaryFallback),
		now:       time.Now,
	}
}

func (n *Normalizer) Profile() Profile {
	return n.profile
}

// Run maps the leading entries of one feed into articles. Category and source
// always come from the source table, never from the entry.
func (n *Normalizer) Run(entries []RawEntry, source Source) []NewArticle {
	limit := n.profile.Limit
	if source.MaxItems > 0 {
		limit = source.MaxItems
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	fetchedAt := n.now().UTC()
	articles := make([]NewArticle, 0, len(entries))
	for _, entry := range entries {
		articles = append(articles, n.normalizeEntry(entry, source, fetchedAt))
	}

	return articles
}

func (n *Normalizer) normalizeEntry(entry RawEntry, source Source, fetchedAt time.Time) NewArticle {
	article := NewArticle{
		Title:       strings.TrimSpace(entry.Title),
		Summary:     n.sanitizer.Run(n.profile.summaryCandidates(entry)...),
		Category:    source.Category,
		ExternalURL: PlaceholderLink,
		PublishedAt: fetchedAt,
		Source:      source.Name,
	}

	if article.Title == "" {
		article.Title = n.profile.TitlePlaceholder
	}

	if link := strings.TrimSpace(entry.Link); isWebURL(link) {
		article.ExternalURL = link
	}

	if imageURL := ResolveImage(entry, entry.Content); isWebURL(imageURL) {
		article.ImageURL = imageURL
	}

	if entry.Published != nil && !entry.Published.IsZero() {
		article.PublishedAt = entry.Published.UTC()
	}

	return article
}
