package feed

import (
	"cmp"
	"net/url"
	"regexp"
	"strings"
)

var (
	imgTagPattern  = regexp.MustCompile(`(?i)<img[^>]+src=['"](https?://[^'"]+)['"]`)
	metaTagPattern = regexp.MustCompile(`(?i)<meta[^>]+property=['"](?:og:image|twitter:image)['"]\s+content=['"](https?://[^'"]+)['"]`)

	// Substrings that mark tracking pixels and spacer images.
	excludedImageMarkers = []string{"1x1", "pixel", "tracking"}
)

// ResolveImage picks the most representative image URL for an entry, or
// returns "" when there is none. content is the entry body as seen by the
// caller and is searched after the entry's own encoded content.
func ResolveImage(entry RawEntry, content string) string {
	if enc := entry.Enclosure; enc != nil && enc.URL != "" {
		if enc.Type == "" || strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}

	if entry.MediaContent != nil && entry.MediaContent.URL != "" {
		return entry.MediaContent.URL
	}

	if entry.MediaThumbnail != nil && entry.MediaThumbnail.URL != "" {
		return entry.MediaThumbnail.URL
	}

	text := cmp.Or(entry.ContentEncoded, content, entry.Description)
	if text == "" {
		return ""
	}

	for _, match := range imgTagPattern.FindAllStringSubmatch(text, -1) {
		if !isExcludedImage(match[1]) {
			return match[1]
		}
	}

	if match := metaTagPattern.FindStringSubmatch(text); match != nil && !isExcludedImage(match[1]) {
		return match[1]
	}

	return ""
}

func isExcludedImage(imageURL string) bool {
	for _, marker := range excludedImageMarkers {
		if strings.Contains(imageURL, marker) {
			return true
		}
	}
	return false
}

// isWebURL reports whether s is an absolute http(s) URL.
func isWebURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
