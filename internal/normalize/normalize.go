package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var spaceRun = regexp.MustCompile(`\s+`)

type Options struct {
	TrimNBSP       bool
	CollapseSpaces bool
	MaxTitleChars  int
}

type Normalizer struct {
	opts Options
}

func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Text cleans a text node extracted from the page. Line breaks always become
// single spaces so a multi-line price renders on one line.
func (n *Normalizer) Text(text string) string {
	if n.opts.TrimNBSP {
		// NBSP (\u00A0) → обычный пробел
		text = strings.ReplaceAll(text, "\u00A0", " ")
	}

	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if n.opts.CollapseSpaces {
		text = spaceRun.ReplaceAllString(text, " ")
	}

	return text
}

// TruncateTitle shortens text to MaxTitleChars runes, cutting at the last
// space when there is one. A zero limit disables truncation.
func (n *Normalizer) TruncateTitle(text string) string {
	limit := n.opts.MaxTitleChars
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	truncated := string([]rune(text)[:limit])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}

	return truncated + "…"
}

// ResolveURL turns href into the listing link. Paths starting with "/" get
// the origin of base prepended; anything else is kept verbatim. The href is
// not re-encoded and keeps its fragment, so ids stay identical to those
// already stored in existing seen files.
func ResolveURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty href")
	}

	if strings.HasPrefix(href, "/") {
		baseURL, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("invalid base url %q: %w", base, err)
		}
		if !baseURL.IsAbs() || baseURL.Host == "" {
			return "", fmt.Errorf("base url %q is not absolute", base)
		}
		href = baseURL.Scheme + "://" + baseURL.Host + href
	}

	if _, err := url.Parse(href); err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}

	return href, nil
}
