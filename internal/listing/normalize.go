// Package listing holds the pure helpers the reconciliation core is built
// on: link identity, price parsing and the accept/reject filter.
package listing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	canonicalScheme = "https"
	canonicalHost   = "www.olx.pl"
	mobileHost      = "m.olx.pl"
)

// ErrUnparseableLink is returned for an empty or structurally invalid URL.
var ErrUnparseableLink = errors.New("link is empty or cannot be parsed")

// NormalizeLink canonicalizes a raw listing URL into the identity key used
// for all dedup and merge matching. Scheme, mobile-host alias, query string,
// fragment and trailing slash never contribute to identity.
func NormalizeLink(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrUnparseableLink
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnparseableLink, err)
	}

	if parsed.Scheme == "" {
		if strings.HasPrefix(raw, "/") {
			// Path-only link from a search results page.
			parsed.Host = canonicalHost
		} else {
			// "www.olx.pl/d/..." parses as a path; reparse with a scheme.
			parsed, err = url.Parse(canonicalScheme + "://" + raw)
			if err != nil {
				return "", fmt.Errorf("%w: %w", ErrUnparseableLink, err)
			}
		}
		parsed.Scheme = canonicalScheme
	}

	host := strings.ToLower(parsed.Host)
	if host == mobileHost {
		host = canonicalHost
	}
	if host == "" {
		return "", ErrUnparseableLink
	}
	parsed.Host = host

	parsed.Scheme = canonicalScheme
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.RawFragment = ""

	path := strings.TrimSuffix(parsed.Path, "/")
	if path == "" {
		path = "/"
	}
	parsed.Path = path
	parsed.RawPath = ""

	return parsed.String(), nil
}

// dediacritic strips combining marks after canonical decomposition.
var dediacritic = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText lower-cases the input, folds diacritics and collapses every
// run of non-alphanumeric characters into a single space. Two texts that
// differ only in case, Polish diacritics or punctuation normalize equal.
func NormalizeText(text string) string {
	lowered := strings.ToLower(text)
	// U+0142 carries a stroke, not a combining mark, so NFD leaves it alone.
	lowered = strings.ReplaceAll(lowered, "ł", "l")

	folded, _, err := transform.String(dediacritic, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		} else {
			pendingSpace = true
		}
	}

	return b.String()
}
