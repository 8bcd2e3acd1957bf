package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ciamek94/scraper/internal/models"
)

// Parser extracts listing summaries and detail fields from fetched OLX
// documents. Extraction is best-effort: malformed cards degrade to empty
// fields rather than failing the page.
type Parser struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Parser {
	return &Parser{log: log}
}

// ParseSearchPage extracts the ordered list of ad summaries from a
// search-results document.
func (p *Parser) ParseSearchPage(ctx context.Context, inp io.Reader) ([]models.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return nil, fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	var snapshots []models.Snapshot
	doc.Find(`div[data-cy="l-card"]`).Each(func(idx int, card *goquery.Selection) {
		snap := models.Snapshot{
			Title:        strings.TrimSpace(card.Find(`div[data-cy="ad-card-title"] h4`).First().Text()),
			PriceText:    cleanPrice(card.Find(`p[data-testid="ad-price"]`).First().Text()),
			LocationDate: strings.Join(strings.Fields(card.Find(`p[data-testid="location-date"]`).First().Text()), " "),
		}
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			snap.Link = strings.TrimSpace(href)
		}

		if snap.Link == "" {
			p.log.WarnContext(ctx, "ad card without a link", "index", idx, "title", snap.Title)
			return
		}

		p.log.DebugContext(ctx, "parsed ad card", "title", snap.Title, "price", snap.PriceText, "link", snap.Link)
		snapshots = append(snapshots, snap)
	})

	return snapshots, nil
}

// ParseListingPage extracts the description text and an optional image URL
// from a listing detail document. Both may be empty on extraction failure.
func (p *Parser) ParseListingPage(_ context.Context, inp io.Reader) (description, imageURL string, err error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return "", "", fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	descSel := doc.Find(`div[data-cy="ad_description"]`).First()
	if descSel.Length() == 0 {
		descSel = doc.Find(`div[class*="description"]`).First()
	}
	description = strings.Join(strings.Fields(descSel.Text()), " ")

	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		imageURL = content
	} else if src, ok := doc.Find(`img[class*="swiper"], img[class*="image"], img[class*="gallery"]`).First().Attr("src"); ok {
		imageURL = src
	} else if src, ok := doc.Find("div.photos img").First().Attr("src"); ok {
		imageURL = src
	}

	return description, imageURL, nil
}

// ParseSearchPageBytes is a convenience wrapper over ParseSearchPage.
func (p *Parser) ParseSearchPageBytes(ctx context.Context, body []byte) ([]models.Snapshot, error) {
	return p.ParseSearchPage(ctx, bytes.NewReader(body))
}

// ParseListingPageBytes is a convenience wrapper over ParseListingPage.
func (p *Parser) ParseListingPageBytes(ctx context.Context, body []byte) (string, string, error) {
	return p.ParseListingPage(ctx, bytes.NewReader(body))
}

func cleanPrice(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
