package listing

import "strings"

// Evaluator decides accept/reject for a listing against one configured
// search. Matching is plain substring matching over normalized text, with
// no word-boundary requirement: a forbidden term inside a longer token still
// rejects, which errs toward dropping a relevant ad rather than alerting on
// an irrelevant one.
type Evaluator struct {
	forbidden []string
	required  []string
	minPrice  *int
	maxPrice  *int
}

// NewEvaluator builds an Evaluator. Filter terms are normalized once here so
// every Accept call works on pre-folded terms. An empty required set means
// no requirement; a non-empty one demands at least one match.
func NewEvaluator(forbidden, required []string, minPrice, maxPrice *int) *Evaluator {
	return &Evaluator{
		forbidden: normalizeTerms(forbidden),
		required:  normalizeTerms(required),
		minPrice:  minPrice,
		maxPrice:  maxPrice,
	}
}

// Accept classifies a listing from its title, description and raw price
// text. A missing or unparseable price never causes rejection on price
// grounds; the configured bounds are inclusive.
func (e *Evaluator) Accept(title, description, priceText string) bool {
	text := NormalizeText(title + " " + description)

	for _, term := range e.forbidden {
		if strings.Contains(text, term) {
			return false
		}
	}

	if len(e.required) > 0 {
		matched := false
		for _, term := range e.required {
			if strings.Contains(text, term) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	price := ParsePrice(priceText)
	if price.HasAmount {
		if e.maxPrice != nil && price.Amount > *e.maxPrice {
			return false
		}
		if e.minPrice != nil && price.Amount < *e.minPrice {
			return false
		}
	}

	return true
}

func normalizeTerms(terms []string) []string {
	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		if folded := NormalizeText(term); folded != "" {
			normalized = append(normalized, folded)
		}
	}
	return normalized
}
