// Package reconciler runs one full reconciliation pass: crawl the configured
// searches, merge observations into the persisted collections, age out
// vanished listings, commit the result atomically and alert the operator
// about new or price-changed accepted listings.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ciamek94/scraper/internal/config"
	"github.com/ciamek94/scraper/internal/listing"
	"github.com/ciamek94/scraper/internal/models"
	"github.com/ciamek94/scraper/internal/storage"
	"github.com/ciamek94/scraper/internal/store"
)

// priceChangedMarker annotates the title of a record whose price moved since
// the last run.
const priceChangedMarker = " ⚠️ Price changed"

// Crawler paginates one query URL and hands every ad summary to visit.
type Crawler interface {
	CrawlQuery(ctx context.Context, baseURL string, visit func(models.Snapshot) error) error
}

// Detailer fetches and extracts a listing's detail page.
type Detailer interface {
	FetchDetails(ctx context.Context, link string) (description, imageURL string, err error)
}

// Committer owns artifact restore and the atomic dual-write commit.
type Committer interface {
	Restore(ctx context.Context) error
	Commit(ctx context.Context, accepted, rejected []models.Record, state models.RunState) error
	LocalPath(name string) string
}

// Notifier delivers one alert and reports the delivery outcome.
type Notifier interface {
	Notify(ctx context.Context, title, price, link, imageURL string) bool
}

// Reconciler is the single-pass orchestrator. One instance may be reused
// across runs but never runs concurrently with itself.
type Reconciler struct {
	log       *slog.Logger
	crawler   Crawler
	detailer  Detailer
	committer Committer
	notifier  Notifier
	searches  []config.Search
	threshold int
}

func New(
	log *slog.Logger,
	crawler Crawler,
	detailer Detailer,
	committer Committer,
	notifier Notifier,
	searches []config.Search,
	evictionThreshold int,
) *Reconciler {
	return &Reconciler{
		log:       log,
		crawler:   crawler,
		detailer:  detailer,
		committer: committer,
		notifier:  notifier,
		searches:  searches,
		threshold: evictionThreshold,
	}
}

// Run executes one reconciliation pass. Only credential and commit failures
// return an error; everything else is absorbed so the run makes forward
// progress. A failed run leaves the previously committed collections exactly
// as they were.
func (r *Reconciler) Run(ctx context.Context) (*models.RunReport, error) {
	const opn = "reconciler.Run"
	log := r.log.With("op", opn)

	// 1. Pull the last committed artifacts down from the remote.
	if err := r.committer.Restore(ctx); err != nil {
		return nil, fmt.Errorf("%s: restore failed: %w", opn, err)
	}

	// 2. Seed the store from the committed collections and prior run state.
	accepted, err := storage.ReadRecordsJSON(r.committer.LocalPath(storage.FileAcceptedJSON))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	rejected, err := storage.ReadRecordsJSON(r.committer.LocalPath(storage.FileRejectedJSON))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	prior, err := storage.ReadRunState(r.committer.LocalPath(storage.FileRunState))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	st := store.New(accepted, rejected, prior)
	log.InfoContext(ctx, "store seeded",
		"accepted", len(accepted), "rejected", len(rejected), "first_run", prior == nil)

	// 3. Crawl every search sequentially, merging as we go.
	report := &models.RunReport{}
	var toNotify []string

	for _, search := range r.searches {
		eval := listing.NewEvaluator(search.ForbiddenWords, search.RequiredWords, search.MinPrice, search.MaxPrice)
		for _, queryURL := range search.URLs {
			log.InfoContext(ctx, "searching", "search", search.Name, "url", queryURL)
			err := r.crawler.CrawlQuery(ctx, queryURL, func(snap models.Snapshot) error {
				return r.process(ctx, st, eval, search.Name, snap, report, &toNotify)
			})
			if err != nil {
				return nil, fmt.Errorf("%s: crawl of %s aborted: %w", opn, queryURL, err)
			}
		}
	}

	// 4. Age out records no longer observed.
	report.Evicted = st.Evict(r.threshold)

	// 5. Alert the operator, recording delivery outcomes on the records so
	// the commit below persists them. Delivery failure never blocks commit.
	for _, normLink := range toNotify {
		rec, class, found := st.Lookup(normLink)
		if !found {
			continue
		}
		delivered := r.notifier.Notify(ctx, rec.Title, rec.Price, rec.Link, rec.Image)
		rec.Notified = delivered
		st.Apply(rec, class)
		if delivered {
			report.Notified++
		}
	}

	// 6. Commit everything atomically, run state included.
	newAccepted, newRejected := st.Collections()
	if err := r.committer.Commit(ctx, newAccepted, newRejected, st.RunState()); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	log.InfoContext(ctx, "reconciliation pass complete",
		"found", report.Found,
		"new_accepted", report.NewAccepted,
		"new_rejected", report.NewRejected,
		"reclassified", report.Reclassified,
		"price_changes", report.PriceChanges,
		"evicted", report.Evicted,
		"notified", report.Notified,
	)

	return report, nil
}

// process merges one observed ad into the store, fetching details and
// re-classifying only when the listing is new or its price moved.
func (r *Reconciler) process(
	ctx context.Context,
	st *store.Store,
	eval *listing.Evaluator,
	searchName string,
	snap models.Snapshot,
	report *models.RunReport,
	toNotify *[]string,
) error {
	report.Found++

	normLink, err := listing.NormalizeLink(snap.Link)
	if err != nil {
		r.log.WarnContext(ctx, "skipping ad with unusable link", "link", snap.Link, "error", err)
		return nil
	}

	obs := st.Observe(normLink, snap.PriceText)
	if obs.Decision != store.Evaluate {
		return nil
	}

	description, imageURL, err := r.detailer.FetchDetails(ctx, snap.Link)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Skipped for this run only; MissingCount aging handles long-term
		// absence.
		report.FetchFailures++
		r.log.WarnContext(ctx, "detail fetch failed, skipping listing this run", "link", snap.Link, "error", err)
		return nil
	}

	price := listing.ParsePrice(snap.PriceText)
	accepted := eval.Accept(snap.Title, description, snap.PriceText)

	rec := models.Record{
		Title:        snap.Title,
		Price:        snap.PriceText,
		Negotiable:   price.Negotiable,
		LocationDate: snap.LocationDate,
		Description:  description,
		Link:         snap.Link,
		NormLink:     normLink,
		Image:        imageURL,
		SearchName:   searchName,
		Timestamp:    time.Now().Unix(),
	}

	if obs.PriceChanged {
		rec.Title += priceChangedMarker
		report.PriceChanges++
		*toNotify = append(*toNotify, normLink)
	}

	if accepted {
		st.Apply(rec, models.ClassAccepted)
		if obs.Known {
			report.Reclassified++
		} else {
			report.NewAccepted++
		}
		if !obs.PriceChanged {
			*toNotify = append(*toNotify, normLink)
		}
	} else {
		st.Apply(rec, models.ClassRejected)
		if obs.Known {
			report.Reclassified++
		} else {
			report.NewRejected++
		}
	}

	return nil
}
