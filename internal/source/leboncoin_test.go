package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanopc/dealfinder/internal/model"
)

func TestLeboncoinFetch(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/finder/search", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ads": [
				{
					"subject": "Carte graphique RTX 3070",
					"body": "très bon état, boîte d'origine",
					"url": "https://www.leboncoin.fr/ad/1",
					"price": [350],
					"index_date": "2024-01-15 10:30:00",
					"images": {"urls": ["https://img.leboncoin.fr/1.jpg"]},
					"owner": {"name": "Marc"}
				},
				{
					"subject": "Tour complète i5",
					"body": "16 Go RAM, SSD 500Go",
					"price": [450]
				},
				{
					"subject": "GeForce GTX 1080",
					"body": "",
					"price": []
				}
			]
		}`))
	}))
	defer server.Close()

	src, err := NewLeboncoinSource(Options{BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, model.SourceLeboncoin, src.Name())

	listings, err := src.Fetch(context.Background(), "carte graphique", 50)
	require.NoError(t, err)
	require.Len(t, listings, 2, "non-GPU ads are filtered out")

	filters, ok := gotBody["filters"].(map[string]any)
	require.True(t, ok)
	keywords, ok := filters["keywords"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "carte graphique", keywords["text"])
	assert.Equal(t, float64(50), gotBody["limit"])
	assert.Equal(t, "time", gotBody["sort_by"])

	first := listings[0]
	assert.Equal(t, model.SourceLeboncoin, first.Source)
	assert.Equal(t, "Carte graphique RTX 3070", first.Title)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 350, *first.Price, 0.001)
	assert.Equal(t, "https://img.leboncoin.fr/1.jpg", first.ImageURL)
	assert.Equal(t, "Marc", first.SellerName)
	assert.Equal(t, "2024-01-15 10:30:00", first.CreatedAt)

	assert.Nil(t, listings[1].Price, "empty price array stays nil")
}

func TestLeboncoinFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	src, err := NewLeboncoinSource(Options{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), "gpu", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestIsGPURelated(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    bool
	}{
		{"subject keyword", "Carte graphique AMD", "", true},
		{"body keyword", "Composant PC", "carte graphique radeon incluse", true},
		{"model token", "RTX 4080 neuve", "", true},
		{"case folded", "GEFORCE occasion", "", true},
		{"unrelated", "Tour complète i5", "16 Go RAM, SSD", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isGPURelated(lbcAd{Subject: tt.subject, Body: tt.body}))
		})
	}
}

func TestNormalizeLeboncoin(t *testing.T) {
	ad := lbcAd{
		Subject:   "Radeon RX 6700 XT",
		Body:      "peu servie",
		URL:       "https://www.leboncoin.fr/ad/2",
		Price:     []float64{329.5},
		IndexDate: "2024-02-01 09:00:00",
	}
	ad.Images.URLs = []string{"https://img.leboncoin.fr/2.jpg", "https://img.leboncoin.fr/2b.jpg"}
	ad.Owner.Name = "Julie"

	listing := normalizeLeboncoin(ad)
	assert.Equal(t, model.SourceLeboncoin, listing.Source)
	assert.Equal(t, "Radeon RX 6700 XT", listing.Title)
	require.NotNil(t, listing.Price)
	assert.InDelta(t, 329.5, *listing.Price, 0.001)
	assert.Equal(t, "https://img.leboncoin.fr/2.jpg", listing.ImageURL, "first image wins")
	assert.Equal(t, "Julie", listing.SellerName)
}
