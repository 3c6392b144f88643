package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gumtree-monitor/internal/normalize"
	"gumtree-monitor/internal/observability"
)

type Scraper struct {
	selectors  *Selectors
	baseURL    string
	normalizer *normalize.Normalizer
	logger     *observability.Logger
}

func NewScraper(selectors *Selectors, baseURL string, normalizer *normalize.Normalizer, logger *observability.Logger) *Scraper {
	if selectors == nil {
		selectors = DefaultSelectors()
	}
	return &Scraper{
		selectors:  selectors,
		baseURL:    baseURL,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Extract parses a search-results page into listings. It only fails when the
// markup cannot be parsed at all; a page without containers yields nil.
func (s *Scraper) Extract(html string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	containers, selector := s.findContainers(doc)
	s.logger.Info("Listing containers found",
		"count", containers.Length(),
		"selector", selector,
	)

	var listings []Listing
	containers.Each(func(i int, sel *goquery.Selection) {
		listing, ok := s.parseContainer(i, sel)
		if ok {
			listings = append(listings, listing)
		}
	})

	s.logger.Info("Listings extracted", "count", len(listings))

	return listings, nil
}

// findContainers tries the container selectors in order and returns the
// first non-empty match.
func (s *Scraper) findContainers(doc *goquery.Document) (*goquery.Selection, string) {
	for _, selector := range s.selectors.ContainerSelectors {
		found := doc.Find(selector)
		if found.Length() > 0 {
			return found, selector
		}
		s.logger.Debug("Container selector matched nothing", "selector", selector)
	}
	return &goquery.Selection{}, ""
}

func (s *Scraper) parseContainer(index int, sel *goquery.Selection) (listing Listing, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Failed to parse listing container, skipping",
				"index", index,
				"panic", fmt.Sprint(r),
			)
			ok = false
		}
	}()

	href := tryAttr(sel, s.selectors.AnchorSelectors, "href")
	if href == "" {
		s.logger.Warn("No link found in listing container, skipping", "index", index)
		return Listing{}, false
	}

	link, err := normalize.ResolveURL(s.baseURL, href)
	if err != nil {
		s.logger.Warn("Unusable link in listing container, skipping",
			"index", index,
			"href", href,
			"error", err.Error(),
		)
		return Listing{}, false
	}

	return Listing{
		ID:       link,
		Title:    s.field(sel, s.selectors.TitleSelectors, true),
		Price:    s.field(sel, s.selectors.PriceSelectors, false),
		Location: s.field(sel, s.selectors.LocationSelectors, false),
		Link:     link,
	}, true
}

func (s *Scraper) field(sel *goquery.Selection, selectors []string, isTitle bool) string {
	text := s.normalizer.Text(tryText(sel, selectors))
	if text == "" {
		return NotAvailable
	}
	if isTitle {
		text = s.normalizer.TruncateTitle(text)
	}
	return text
}

func tryText(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		found := s.Find(selector).First()
		if found.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(found.Text()); text != "" {
			return text
		}
	}
	return ""
}

func tryAttr(s *goquery.Selection, selectors []string, attr string) string {
	for _, selector := range selectors {
		value, exists := s.Find(selector).First().Attr(attr)
		if exists && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
