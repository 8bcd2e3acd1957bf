package parser

import (
	"context"
	"log/slog"

	"github.com/ciamek94/scraper/internal/config"
)

// Detailer fetches a listing's detail page and extracts its description and
// image. Detail fetches are the expensive, rate-limited part of a run, so
// each one is followed by a politeness pause.
type Detailer struct {
	log     *slog.Logger
	fetcher *Fetcher
	parser  *Parser
	delay   config.DelayRange
}

func NewDetailer(log *slog.Logger, fetcher *Fetcher, p *Parser, delay config.DelayRange) *Detailer {
	return &Detailer{log: log, fetcher: fetcher, parser: p, delay: delay}
}

// FetchDetails retrieves one listing page. Extraction failures degrade to
// empty fields; only the fetch itself can fail.
func (d *Detailer) FetchDetails(ctx context.Context, link string) (description, imageURL string, err error) {
	body, err := d.fetcher.Get(ctx, link)
	if err != nil {
		return "", "", err
	}

	description, imageURL, err = d.parser.ParseListingPageBytes(ctx, body)
	if err != nil {
		d.log.WarnContext(ctx, "listing page not parseable, using empty details", "link", link, "error", err)
		description, imageURL = "", ""
	}

	if err := d.fetcher.Pause(ctx, d.delay); err != nil {
		return "", "", err
	}
	return description, imageURL, nil
}
