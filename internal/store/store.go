// Package store implements the in-memory record store the reconciliation
// pass works against: one logical map keyed by normalized link with an
// accepted/rejected classification tag, so migration between the two
// collections is a single entry update and the collections can never drift
// into holding the same listing twice.
package store

import (
	"sort"
	"time"

	"github.com/ciamek94/scraper/internal/listing"
	"github.com/ciamek94/scraper/internal/models"
)

// Decision tells the caller what to do with an observed listing.
type Decision int

const (
	// SkipSeen: the link was already processed earlier in this run
	// (pagination overlap); do nothing.
	SkipSeen Decision = iota
	// SkipClassified: a record exists with an equal price; skip the detail
	// fetch and re-evaluation.
	SkipClassified
	// Evaluate: fetch details and run the filter evaluator.
	Evaluate
)

// Observation is the merge decision for one observed (link, price) pair.
type Observation struct {
	Decision Decision
	// PriceChanged is set when an accepted record holds a different price
	// than the one just observed. Price changes against the rejected
	// collection are deliberately not flagged.
	PriceChanged bool
	// Known is set when a record for the link already existed in either
	// collection, so an Evaluate outcome is a re-classification rather than
	// a genuinely new listing.
	Known bool
}

type entry struct {
	rec   models.Record
	class models.Class
}

// Store holds both persisted collections plus the run-scoped seen set and
// price map. It is owned exclusively by the single run in progress.
type Store struct {
	records  map[string]entry
	seen     map[string]struct{}
	prices   map[string]string
	priorRun bool

	now func() int64
}

// New seeds a Store from the persisted collections and the previous run's
// state. A nil or zero prior state marks a first-ever run, which disables
// eviction for this pass.
func New(accepted, rejected []models.Record, prior *models.RunState) *Store {
	s := &Store{
		records:  make(map[string]entry, len(accepted)+len(rejected)),
		seen:     make(map[string]struct{}),
		prices:   make(map[string]string),
		priorRun: prior != nil && prior.LastRun != 0,
		now:      func() int64 { return time.Now().Unix() },
	}
	for _, rec := range accepted {
		s.records[rec.NormLink] = entry{rec: rec, class: models.ClassAccepted}
	}
	for _, rec := range rejected {
		// Accepted wins if a corrupt artifact pair held a link in both.
		if _, taken := s.records[rec.NormLink]; taken {
			continue
		}
		s.records[rec.NormLink] = entry{rec: rec, class: models.ClassRejected}
	}
	return s
}

// Observe records that a listing with the given identity and raw price was
// seen this run and decides how to process it. The first observation of a
// link wins; later ones in the same run are skipped.
func (s *Store) Observe(normLink, priceText string) Observation {
	if _, dup := s.seen[normLink]; dup {
		return Observation{Decision: SkipSeen}
	}
	s.seen[normLink] = struct{}{}
	s.prices[normLink] = priceText

	existing, found := s.records[normLink]
	if !found {
		return Observation{Decision: Evaluate}
	}

	if listing.PriceEqual(existing.rec.Price, priceText) {
		// The amount is unchanged but the negotiable marker may have been
		// added or dropped, so the flag tracks the fresh listing text.
		existing.rec.Negotiable = listing.ParsePrice(priceText).Negotiable
		existing.rec.Timestamp = s.now()
		s.records[normLink] = existing
		return Observation{Decision: SkipClassified}
	}

	return Observation{
		Decision:     Evaluate,
		PriceChanged: existing.class == models.ClassAccepted,
		Known:        true,
	}
}

// Apply inserts or replaces the record under the fresh classification,
// migrating it out of the other collection when necessary.
func (s *Store) Apply(rec models.Record, class models.Class) {
	s.records[rec.NormLink] = entry{rec: rec, class: class}
}

// Lookup returns the stored record and its classification.
func (s *Store) Lookup(normLink string) (models.Record, models.Class, bool) {
	e, found := s.records[normLink]
	return e.rec, e.class, found
}

// Len reports the number of stored records across both collections.
func (s *Store) Len() int {
	return len(s.records)
}

// Collections returns the accepted and rejected records sorted by identity
// key, so serialized artifacts are deterministic between runs.
func (s *Store) Collections() (accepted, rejected []models.Record) {
	for _, e := range s.records {
		if e.class == models.ClassAccepted {
			accepted = append(accepted, e.rec)
		} else {
			rejected = append(rejected, e.rec)
		}
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].NormLink < accepted[j].NormLink })
	sort.Slice(rejected, func(i, j int) bool { return rejected[i].NormLink < rejected[j].NormLink })
	return accepted, rejected
}

// RunState builds the state document to persist alongside the collections.
func (s *Store) RunState() models.RunState {
	seen := make([]string, 0, len(s.seen))
	for link := range s.seen {
		seen = append(seen, link)
	}
	sort.Strings(seen)

	prices := make(map[string]string, len(s.prices))
	for link, price := range s.prices {
		prices[link] = price
	}

	return models.RunState{
		Seen:       seen,
		LastPrices: prices,
		LastRun:    s.now(),
	}
}
