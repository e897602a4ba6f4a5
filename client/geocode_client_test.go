package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

func geocodeServer(t *testing.T, handler http.HandlerFunc) *GoogleGeocoder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g := NewGoogleGeocoder("test-key")
	g.baseURL = server.URL
	g.retryWait = 10 * time.Millisecond
	return g
}

func candidateResponse(addresses ...string) map[string]any {
	results := make([]map[string]any, 0, len(addresses))
	for _, addr := range addresses {
		results = append(results, map[string]any{
			"formatted_address": addr,
			"geometry": map[string]any{
				"location": map[string]any{"lat": 39.9, "lng": 32.8},
			},
		})
	}
	return map[string]any{"status": "OK", "results": results}
}

func TestGeocodePerfectMatch(t *testing.T) {
	g := geocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(candidateResponse(
			"Atatürk Bulvarı No:12, 06420 Çankaya/Ankara, Türkiye",
		))
	})

	comp := dto.AddressComponents{
		Street:      "Atatürk Bulvarı",
		HouseNumber: "12",
		District:    "Çankaya",
		City:        "Ankara",
		Country:     "Türkiye",
	}
	result, err := g.Geocode(context.Background(), comp, "")
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, result.IsPerfect)
	assert.InDelta(t, 39.9, result.Lat, 0.001)
}

func TestGeocodeCityFallback(t *testing.T) {
	g := geocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("components") != "" {
			// Structured attempt finds nothing usable.
			json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS"})
			return
		}
		json.NewEncoder(w).Encode(candidateResponse("Ankara, Türkiye"))
	})

	comp := dto.AddressComponents{Street: "Bilinmeyen Cadde", City: "Ankara", Country: "Türkiye"}
	result, err := g.Geocode(context.Background(), comp, "")
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.False(t, result.IsPerfect)
	assert.InDelta(t, 0.3, result.Confidence, 0.001)
}

func TestGeocodeRetriesOnce(t *testing.T) {
	calls := 0
	g := geocodeServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(candidateResponse(
			"Atatürk Bulvarı No:12, Çankaya/Ankara, Türkiye",
		))
	})

	comp := dto.AddressComponents{Street: "Atatürk Bulvarı", HouseNumber: "12", City: "Ankara"}
	result, err := g.Geocode(context.Background(), comp, "")
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 2, calls)
}

func TestContainsToken(t *testing.T) {
	assert.True(t, containsToken("atatürk bulvarı no:12 ankara", "Atatürk Bulvarı"))
	assert.False(t, containsToken("istiklal caddesi istanbul", "Atatürk Bulvarı"))
	assert.False(t, containsToken("anything", "ab cd"))
}
