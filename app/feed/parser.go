package feed

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses RSS/Atom/JSON feed data into raw entries in document order.
func (p *Parser) Run(data []byte) (string, []RawEntry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.toRawEntry(item))
	}

	return feed.Title, entries, nil
}

func (p *Parser) toRawEntry(item *gofeed.Item) RawEntry {
	content := cmp.Or(item.Content, item.Description)

	entry := RawEntry{
		Title:          item.Title,
		Link:           item.Link,
		Description:    item.Description,
		ContentEncoded: item.Content,
		Content:        content,
		ContentSnippet: StripHTML(content),
	}

	if item.PublishedParsed != nil {
		entry.Published = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		entry.Published = item.UpdatedParsed
	}

	// RSS 2.0 allows a single enclosure per item
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		entry.Enclosure = &Enclosure{
			URL:  item.Enclosures[0].URL,
			Type: item.Enclosures[0].Type,
		}
	}

	entry.MediaContent = p.mediaRef(item.Extensions, "content")
	entry.MediaThumbnail = p.mediaRef(item.Extensions, "thumbnail")

	return entry
}

// mediaRef returns the url attribute of the first media:<name> element that has one.
func (p *Parser) mediaRef(extensions ext.Extensions, name string) *MediaRef {
	media, ok := extensions["media"]
	if !ok {
		return nil
	}

	for _, e := range media[name] {
		if u := e.Attrs["url"]; u != "" {
			return &MediaRef{URL: u}
		}
	}

	return nil
}
