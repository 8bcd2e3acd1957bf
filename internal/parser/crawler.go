package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ciamek94/scraper/internal/config"
	"github.com/ciamek94/scraper/internal/models"
)

// Crawler walks a single query URL page by page and hands every extracted ad
// summary to a visitor. Pages are fetched strictly sequentially with a
// politeness delay between them.
type Crawler struct {
	log           *slog.Logger
	fetcher       *Fetcher
	parser        *Parser
	maxPages      int
	maxEmptyPages int
	pageDelay     config.DelayRange
}

func NewCrawler(log *slog.Logger, fetcher *Fetcher, p *Parser, cfg *config.Config) *Crawler {
	return &Crawler{
		log:           log,
		fetcher:       fetcher,
		parser:        p,
		maxPages:      cfg.MaxPages,
		maxEmptyPages: cfg.MaxEmptyPages,
		pageDelay:     cfg.PageDelay,
	}
}

// CrawlQuery paginates through a search query until the page cap is hit or
// too many consecutive pages come back empty. A page that fails to fetch or
// parse counts as empty; only context cancellation stops the crawl with an
// error.
func (c *Crawler) CrawlQuery(ctx context.Context, baseURL string, visit func(models.Snapshot) error) error {
	emptyPages := 0

	for page := 1; page <= c.maxPages && emptyPages < c.maxEmptyPages; page++ {
		paged := pagedURL(baseURL, page)
		c.log.InfoContext(ctx, "fetching search page", "url", paged, "page", page)

		body, err := c.fetcher.Get(ctx, paged)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.WarnContext(ctx, "search page fetch failed, counting as empty", "url", paged, "error", err)
			emptyPages++
			if err := c.fetcher.Pause(ctx, c.pageDelay); err != nil {
				return err
			}
			continue
		}

		snapshots, err := c.parser.ParseSearchPageBytes(ctx, body)
		if err != nil || len(snapshots) == 0 {
			emptyPages++
			if err := c.fetcher.Pause(ctx, c.pageDelay); err != nil {
				return err
			}
			continue
		}

		emptyPages = 0
		for _, snap := range snapshots {
			if err := visit(snap); err != nil {
				return err
			}
		}

		if err := c.fetcher.Pause(ctx, c.pageDelay); err != nil {
			return err
		}
	}

	return nil
}

func pagedURL(base string, page int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, page)
}
