package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gumtree-monitor/internal/normalize"
	"gumtree-monitor/internal/observability"
)

const baseURL = "https://www.gumtree.com"

func newTestScraper(t *testing.T) (*Scraper, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	normalizer := normalize.NewNormalizer(normalize.Options{TrimNBSP: true, CollapseSpaces: true})
	return NewScraper(DefaultSelectors(), baseURL, normalizer, observability.NewFromZap(zap.New(core))), logs
}

func TestExtractPrimarySelector(t *testing.T) {
	scr, _ := newTestScraper(t)

	html := `<html><body>
		<article class="listing-maxi">
			<a data-q="search-result-anchor" href="/p/accordions/hohner-morino/1001">
				<div data-q="tile-title">  Hohner Morino IV  </div>
				<div data-testid="price">£1,200
					ono</div>
				<div data-q="tile-location">Glasgow</div>
			</a>
		</article>
		<article data-q="search-result">
			<a data-q="search-result-anchor" href="/p/ignored/1"></a>
		</article>
	</body></html>`

	listings, err := scr.Extract(html)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	got := listings[0]
	assert.Equal(t, "https://www.gumtree.com/p/accordions/hohner-morino/1001", got.ID)
	assert.Equal(t, got.ID, got.Link)
	assert.Equal(t, "Hohner Morino IV", got.Title)
	assert.Equal(t, "£1,200 ono", got.Price)
	assert.Equal(t, "Glasgow", got.Location)
}

func TestExtractFallsBackToSecondarySelector(t *testing.T) {
	scr, _ := newTestScraper(t)

	html := `<html><body>
		<article data-q="search-result">
			<a data-q="search-result-anchor" href="/p/a/1"><div data-q="tile-title">First</div></a>
		</article>
		<article data-q="search-result">
			<a data-q="search-result-anchor" href="https://www.gumtree.com/p/b/2"><div data-q="tile-title">Second</div></a>
		</article>
	</body></html>`

	listings, err := scr.Extract(html)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "https://www.gumtree.com/p/a/1", listings[0].ID)
	assert.Equal(t, "First", listings[0].Title)
	assert.Equal(t, "https://www.gumtree.com/p/b/2", listings[1].ID)
	assert.Equal(t, "Second", listings[1].Title)
}

func TestExtractMissingFieldsUseSentinel(t *testing.T) {
	scr, _ := newTestScraper(t)

	html := `<article class="listing-maxi">
		<a data-q="search-result-anchor" href="/p/c/3"><div data-q="tile-title">No price here</div></a>
	</article>`

	listings, err := scr.Extract(html)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, NotAvailable, listings[0].Price)
	assert.Equal(t, NotAvailable, listings[0].Location)
	assert.Equal(t, "No price here", listings[0].Title)
}

func TestExtractSkipsContainerWithoutAnchor(t *testing.T) {
	scr, logs := newTestScraper(t)

	html := `
		<article class="listing-maxi"><div data-q="tile-title">Orphan</div></article>
		<article class="listing-maxi"><a data-q="search-result-anchor">no href</a></article>
		<article class="listing-maxi"><a data-q="search-result-anchor" href="/p/d/4">ok</a></article>`

	listings, err := scr.Extract(html)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "https://www.gumtree.com/p/d/4", listings[0].ID)
	assert.Equal(t, 2, logs.FilterMessage("No link found in listing container, skipping").Len())
}

func TestExtractNoContainers(t *testing.T) {
	scr, _ := newTestScraper(t)

	listings, err := scr.Extract(`<html><body><p>No results</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestExtractCustomSelectors(t *testing.T) {
	normalizer := normalize.NewNormalizer(normalize.Options{})
	selectors := &Selectors{
		ContainerSelectors: []string{"li.ad"},
		AnchorSelectors:    []string{"a.missing", "a.ad-link"},
		TitleSelectors:     []string{"h2.missing", "h3"},
		PriceSelectors:     []string{"span.price"},
		LocationSelectors:  []string{"span.loc"},
	}
	scr := NewScraper(selectors, baseURL, normalizer, observability.NewNop())

	listings, err := scr.Extract(`<ul><li class="ad"><a class="ad-link" href="/p/e/5"></a><h3>Paolo Soprani</h3><span class="price">£300</span></li></ul>`)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Paolo Soprani", listings[0].Title)
	assert.Equal(t, "£300", listings[0].Price)
	assert.Equal(t, NotAvailable, listings[0].Location)
}

func TestExtractSkipsMalformedContainerKeepsNeighbours(t *testing.T) {
	scr, logs := newTestScraper(t)

	html := `
		<article class="listing-maxi"><a data-q="search-result-anchor" href="/p/before/1"><div data-q="tile-title">Before</div></a></article>
		<article class="listing-maxi"><a data-q="search-result-anchor" href="http://[::1"><div data-q="tile-title">Broken</div></a></article>
		<article class="listing-maxi"><a data-q="search-result-anchor" href="/p/after/3"><div data-q="tile-title">After</div></a></article>`

	listings, err := scr.Extract(html)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "Before", listings[0].Title)
	assert.Equal(t, "After", listings[1].Title)

	skipped := logs.FilterMessage("Unusable link in listing container, skipping").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "http://[::1", skipped[0].ContextMap()["href"])
}

func TestExtractKeepsHrefVerbatim(t *testing.T) {
	scr, _ := newTestScraper(t)

	listings, err := scr.Extract(`<article class="listing-maxi"><a data-q="search-result-anchor" href="/p/x/1#photos">x</a></article>`)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "https://www.gumtree.com/p/x/1#photos", listings[0].ID)
}

func TestParseContainerRecoversFromPanic(t *testing.T) {
	scr, logs := newTestScraper(t)
	scr.normalizer = nil // panics inside field()

	doc := `<article class="listing-maxi"><a data-q="search-result-anchor" href="/p/x/1">x</a></article>`
	listings, err := scr.Extract(doc)
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Equal(t, 1, logs.FilterMessage("Failed to parse listing container, skipping").Len())
}
