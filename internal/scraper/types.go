package scraper

// NotAvailable replaces any listing field that could not be extracted.
const NotAvailable = "N/A"

// Listing is one ad from a search-results page. ID is the absolute link and
// is the deduplication key.
type Listing struct {
	ID       string
	Title    string
	Price    string
	Location string
	Link     string
}

// Selectors describes where listing data lives in the page. Every field is an
// ordered list: the first selector that matches wins.
type Selectors struct {
	ContainerSelectors []string `yaml:"container_selectors"`
	AnchorSelectors    []string `yaml:"anchor_selectors"`
	TitleSelectors     []string `yaml:"title_selectors"`
	PriceSelectors     []string `yaml:"price_selectors"`
	LocationSelectors  []string `yaml:"location_selectors"`
}

// DefaultSelectors matches the Gumtree UK search results markup.
func DefaultSelectors() *Selectors {
	return &Selectors{
		ContainerSelectors: []string{"article.listing-maxi", "article[data-q='search-result']"},
		AnchorSelectors:    []string{"a[data-q='search-result-anchor']"},
		TitleSelectors:     []string{"div[data-q='tile-title']"},
		PriceSelectors:     []string{"div[data-testid='price']"},
		LocationSelectors:  []string{"div[data-q='tile-location']"},
	}
}
