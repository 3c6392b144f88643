package config

import (
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"

	"gumtree-monitor/internal/scraper"
)

// LoadSelectors loads selectors from a YAML file. Lists missing from the
// file keep their built-in defaults.
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	selectors := scraper.DefaultSelectors()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return nil, err
	}

	return selectors, nil
}

// Selectors returns the selectors configured by selectors_file, or the
// built-in defaults when no file is set.
func (c *Config) Selectors() (*scraper.Selectors, error) {
	if c.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}
	return LoadSelectors(c.SelectorsFile)
}

// validateSelectors проверяет минимальный набор селекторов и их синтаксис
func validateSelectors(s *scraper.Selectors) error {
	if len(s.ContainerSelectors) == 0 {
		return fmt.Errorf("container_selectors is required")
	}
	if len(s.AnchorSelectors) == 0 {
		return fmt.Errorf("anchor_selectors is required")
	}

	groups := []struct {
		name      string
		selectors []string
	}{
		{"container_selectors", s.ContainerSelectors},
		{"anchor_selectors", s.AnchorSelectors},
		{"title_selectors", s.TitleSelectors},
		{"price_selectors", s.PriceSelectors},
		{"location_selectors", s.LocationSelectors},
	}
	for _, g := range groups {
		for i, sel := range g.selectors {
			if _, err := cascadia.Compile(sel); err != nil {
				return fmt.Errorf("%s[%d] %q: %w", g.name, i, sel, err)
			}
		}
	}

	return nil
}
