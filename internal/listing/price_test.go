package listing_test

import (
	"testing"

	"github.com/ciamek94/scraper/internal/listing"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		name           string
		input          string
		wantAmount     int
		wantHasAmount  bool
		wantNegotiable bool
	}{
		{"plain amount", "500 zł", 500, true, false},
		{"thousands separated by space", "1 200 zł", 1200, true, false},
		{"no space before currency", "600zł", 600, true, false},
		{"negotiable with amount", "500 zł do negocjacji", 500, true, true},
		{"negotiable mixed case and spacing", "500 zł Do  Negocjacji", 500, true, true},
		{"negotiable without amount", "Do negocjacji", 0, false, true},
		{"free-text price", "Zamienię", 0, false, false},
		{"empty", "", 0, false, false},
		{"digits at end", "cena 750", 750, true, false},
		{"only first digit run", "od 100 do 200 zł", 100, true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := listing.ParsePrice(tc.input)
			assert.Equal(t, tc.input, got.Raw)
			assert.Equal(t, tc.wantHasAmount, got.HasAmount)
			assert.Equal(t, tc.wantAmount, got.Amount)
			assert.Equal(t, tc.wantNegotiable, got.Negotiable)
		})
	}
}

func TestPriceEqual(t *testing.T) {
	testCases := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"same formatting", "500 zł", "500 zł", true},
		{"cosmetic formatting difference", "600zł", "600 zł", true},
		{"thousands separator difference", "1 200 zł", "1200 zł", true},
		{"negotiable marker does not change price", "500 zł", "500 zł do negocjacji", true},
		{"different amounts", "500 zł", "600 zł", false},
		{"raw fallback equal", "Zamienię", "Zamienię", true},
		{"raw fallback not equal", "Zamienię", "Za darmo", false},
		{"numeric vs free text", "500 zł", "Zamienię", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.equal, listing.PriceEqual(tc.a, tc.b))
		})
	}
}
