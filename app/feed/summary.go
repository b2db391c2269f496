package feed

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const Ellipsis = "..."

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#x27;", "'",
	)
)

// Sanitizer turns feed HTML into a bounded plain-text excerpt.
type Sanitizer struct {
	MaxLength int
	Fallback  string
}

func NewSanitizer(maxLength int, fallback string) *Sanitizer {
	return &Sanitizer{MaxLength: maxLength, Fallback: fallback}
}

// Run sanitizes the first candidate that is non-empty. The fallback is used
// only when every candidate is empty.
func (s *Sanitizer) Run(candidates ...string) string {
	source := s.Fallback
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			source = c
			break
		}
	}

	return Truncate(StripHTML(source), s.MaxLength)
}

// StripHTML removes tags, decodes the common entities and collapses whitespace.
func StripHTML(s string) string {
	text := tagPattern.ReplaceAllString(s, "")
	text = entityReplacer.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return norm.NFC.String(strings.TrimSpace(text))
}

// Truncate cuts text to at most maxLength runes, including the ellipsis.
// The cut backs up to the last space so words are not split; when the kept
// span has no space the text is cut hard. A maximum shorter than the ellipsis
// cuts hard without it.
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if maxLength <= 0 || len(runes) <= maxLength {
		return text
	}

	keep := maxLength - len(Ellipsis)
	switch {
	case keep == 0:
		return Ellipsis
	case keep < 0:
		return string(runes[:maxLength])
	}

	cut := runes[:keep]
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimRightFunc(string(cut[:i]), unicode.IsSpace) + Ellipsis
		}
	}

	return string(cut) + Ellipsis
}
