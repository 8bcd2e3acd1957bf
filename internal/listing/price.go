package listing

import (
	"strings"
	"unicode"
)

// negotiablePhrase is the localized "open to negotiation" marker.
const negotiablePhrase = "do negocjacji"

// Price is the parsed form of a raw price string. Amount is only meaningful
// when HasAmount is set; free-text prices ("Zamienię", "Za darmo") carry no
// numeric form.
type Price struct {
	Raw        string
	Amount     int
	HasAmount  bool
	Negotiable bool
}

// ParsePrice extracts the first run of digits (tolerating embedded spaces,
// the common thousands separator) as an integer amount and independently
// detects the negotiable marker phrase.
func ParsePrice(raw string) Price {
	price := Price{Raw: raw, Negotiable: containsNegotiable(raw)}

	amount := 0
	inRun := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			amount = amount*10 + int(r-'0')
			inRun = true
		case unicode.IsSpace(r):
			// Spaces inside a digit run separate thousands groups.
		default:
			if inRun {
				price.Amount = amount
				price.HasAmount = true
				return price
			}
		}
	}
	if inRun {
		price.Amount = amount
		price.HasAmount = true
	}

	return price
}

// Equal reports whether two prices are the same offer price: numeric
// comparison when both sides parse, exact raw text otherwise. This keeps
// cosmetic formatting differences ("600zł" vs "600 zł") from reading as a
// price change.
func (p Price) Equal(other Price) bool {
	if p.HasAmount && other.HasAmount {
		return p.Amount == other.Amount
	}
	return p.Raw == other.Raw
}

// PriceEqual compares two raw price strings per Price.Equal.
func PriceEqual(a, b string) bool {
	return ParsePrice(a).Equal(ParsePrice(b))
}

func containsNegotiable(raw string) bool {
	collapsed := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	return strings.Contains(collapsed, negotiablePhrase)
}
