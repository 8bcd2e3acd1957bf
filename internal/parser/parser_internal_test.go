package parser

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ciamek94/scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Creating a "silent" logger that doesn't output anything during tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseSearchPage(t *testing.T) {
	p := New(testLogger())

	validHTML := `
	<html>
	<body>
		<div data-cy="l-card">
			<a href="/d/oferta/falownik-3kw-CID99-ID1.html"></a>
			<div data-cy="ad-card-title"><h4>Falownik 3kW</h4></div>
			<p data-testid="ad-price">1 200 zł</p>
			<p data-testid="location-date">Kraków -
			 dzisiaj o 14:30</p>
		</div>
		<div data-cy="l-card">
			<a href="https://www.olx.pl/d/oferta/sprezarka-CID99-ID2.html"></a>
			<div data-cy="ad-card-title"><h4>Sprężarka śrubowa</h4></div>
			<p data-testid="ad-price">6 000 zł do negocjacji</p>
			<p data-testid="location-date">Warszawa - wczoraj</p>
		</div>
		<div data-cy="l-card">
			<div data-cy="ad-card-title"><h4>card without a link</h4></div>
		</div>
	</body>
	</html>`

	expected := []models.Snapshot{
		{
			Title:        "Falownik 3kW",
			Link:         "/d/oferta/falownik-3kw-CID99-ID1.html",
			PriceText:    "1 200 zł",
			LocationDate: "Kraków - dzisiaj o 14:30",
		},
		{
			Title:        "Sprężarka śrubowa",
			Link:         "https://www.olx.pl/d/oferta/sprezarka-CID99-ID2.html",
			PriceText:    "6 000 zł do negocjacji",
			LocationDate: "Warszawa - wczoraj",
		},
	}

	testCases := []struct {
		name      string
		inputHTML string
		expected  []models.Snapshot
	}{
		{
			name:      "successful parsing, link-less card skipped",
			inputHTML: validHTML,
			expected:  expected,
		},
		{
			name:      "empty document",
			inputHTML: "",
			expected:  nil,
		},
		{
			name:      "document without ad cards",
			inputHTML: "<html><body><p>nothing here</p></body></html>",
			expected:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.ParseSearchPageBytes(t.Context(), []byte(tc.inputHTML))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseListingPage(t *testing.T) {
	p := New(testLogger())

	testCases := []struct {
		name      string
		inputHTML string
		wantDesc  string
		wantImage string
	}{
		{
			name: "description and og:image",
			inputHTML: `<html><head>
				<meta property="og:image" content="https://img.olx.pl/1.jpg"/>
			</head><body>
				<div data-cy="ad_description">Sprawny   falownik,
				mało używany.</div>
			</body></html>`,
			wantDesc:  "Sprawny falownik, mało używany.",
			wantImage: "https://img.olx.pl/1.jpg",
		},
		{
			name: "description class fallback and gallery image",
			inputHTML: `<html><body>
				<div class="css-description-x">Opis ogłoszenia</div>
				<img class="swiper-slide" src="https://img.olx.pl/2.jpg"/>
			</body></html>`,
			wantDesc:  "Opis ogłoszenia",
			wantImage: "https://img.olx.pl/2.jpg",
		},
		{
			name:      "nothing extractable",
			inputHTML: `<html><body><p>bare page</p></body></html>`,
			wantDesc:  "",
			wantImage: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			desc, image, err := p.ParseListingPageBytes(t.Context(), []byte(tc.inputHTML))
			require.NoError(t, err)
			assert.Equal(t, tc.wantDesc, desc)
			assert.Equal(t, tc.wantImage, image)
		})
	}
}

func TestPagedURL(t *testing.T) {
	assert.Equal(t,
		"https://www.olx.pl/oferty/q-falownik/?page=2",
		pagedURL("https://www.olx.pl/oferty/q-falownik/", 2))
	assert.Equal(t,
		"https://www.olx.pl/oferty/q-falownik/?search=1&page=3",
		pagedURL("https://www.olx.pl/oferty/q-falownik/?search=1", 3))
}

func TestFetcher_Get_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(testLogger(), time.Second, 4)
	f.backoff = time.Millisecond
	body, err := f.Get(t.Context(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_Get_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(testLogger(), time.Second, 2)
	f.backoff = time.Millisecond
	_, err := f.Get(t.Context(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
