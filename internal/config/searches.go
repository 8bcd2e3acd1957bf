package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Search is one configured query: a name, an ordered list of query endpoints
// (already price-bucketed by the operator) and the filter terms applied to
// every listing the query yields. Immutable for the duration of a run.
type Search struct {
	Name           string   `yaml:"name"`
	URLs           []string `yaml:"urls"`
	ForbiddenWords []string `yaml:"forbidden_words"`
	RequiredWords  []string `yaml:"required_words"`
	MinPrice       *int     `yaml:"min_price"`
	MaxPrice       *int     `yaml:"max_price"`
}

type searchesFile struct {
	Searches []Search `yaml:"searches"`
}

// LoadSearches loads and validates the YAML searches file.
func LoadSearches(path string) ([]Search, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read searches file: %w", err)
	}

	var file searchesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse searches YAML: %w", err)
	}

	if len(file.Searches) == 0 {
		return nil, fmt.Errorf("searches file %s defines no searches", path)
	}

	names := make(map[string]struct{}, len(file.Searches))
	for i, s := range file.Searches {
		if err := validateSearch(s); err != nil {
			return nil, fmt.Errorf("invalid search #%d: %w", i+1, err)
		}
		if _, dup := names[s.Name]; dup {
			return nil, fmt.Errorf("duplicate search name %q", s.Name)
		}
		names[s.Name] = struct{}{}
	}

	return file.Searches, nil
}

func validateSearch(s Search) error {
	if s.Name == "" {
		return fmt.Errorf("search name is required")
	}
	if len(s.URLs) == 0 {
		return fmt.Errorf("search %q has no query URLs", s.Name)
	}
	for _, u := range s.URLs {
		if u == "" {
			return fmt.Errorf("search %q has an empty query URL", s.Name)
		}
	}
	if s.MinPrice != nil && *s.MinPrice < 0 {
		return fmt.Errorf("search %q: min_price must be non-negative", s.Name)
	}
	if s.MaxPrice != nil && *s.MaxPrice < 0 {
		return fmt.Errorf("search %q: max_price must be non-negative", s.Name)
	}
	if s.MinPrice != nil && s.MaxPrice != nil && *s.MinPrice > *s.MaxPrice {
		return fmt.Errorf("search %q: min_price exceeds max_price", s.Name)
	}
	return nil
}
