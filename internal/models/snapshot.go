package models

// Snapshot is one observed ad as extracted from a search-results page,
// optionally enriched with detail-page fields. It lives only for the
// duration of processing a single ad and is never persisted directly.
type Snapshot struct {
	Title        string
	Link         string
	PriceText    string
	LocationDate string
	Description  string
	Image        string
	SearchName   string
}
