package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

const defaultGeocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder resolves an extracted address to coordinates. The engine
// itself never calls this; it is pluggable enrichment the service
// layer applies when configured.
type Geocoder interface {
	Geocode(ctx context.Context, comp dto.AddressComponents, orgName string) (*dto.GeocodeResult, error)
}

type GoogleGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryWait  time.Duration
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:     apiKey,
		baseURL:    defaultGeocodeBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		retryWait:  2 * time.Second,
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Types []string `json:"types"`
	} `json:"results"`
}

// Geocode sends a structured-components request and scores the
// returned candidates against the extracted address parts. A match is
// perfect when the street, house number and city all line up.
func (g *GoogleGeocoder) Geocode(ctx context.Context, comp dto.AddressComponents, orgName string) (*dto.GeocodeResult, error) {
	resp, err := g.request(ctx, g.buildQuery(comp))
	if err != nil {
		return nil, err
	}
	if result := g.bestCandidate(resp, comp, orgName); result != nil {
		return result, nil
	}

	// Retry at city granularity; a rough pin beats none.
	if comp.City != "" {
		cityResp, err := g.request(ctx, url.Values{
			"address": []string{comp.City + ", " + comp.Country},
			"key":     []string{g.apiKey},
		})
		if err != nil {
			return nil, err
		}
		if len(cityResp.Results) > 0 {
			r := cityResp.Results[0]
			return &dto.GeocodeResult{
				Lat:              r.Geometry.Location.Lat,
				Lng:              r.Geometry.Location.Lng,
				FormattedAddress: r.FormattedAddress,
				Confidence:       0.3,
			}, nil
		}
	}
	return nil, nil
}

func (g *GoogleGeocoder) buildQuery(comp dto.AddressComponents) url.Values {
	var parts []string
	if comp.Street != "" {
		parts = append(parts, comp.Street)
	}
	if comp.HouseNumber != "" {
		parts = append(parts, "No: "+comp.HouseNumber)
	}
	if comp.District != "" {
		parts = append(parts, comp.District)
	}
	if comp.City != "" {
		parts = append(parts, comp.City)
	}

	q := url.Values{}
	q.Set("address", strings.Join(parts, " "))
	q.Set("components", "country:TR")
	q.Set("key", g.apiKey)
	return q
}

// request performs the HTTP call with one retry after a fixed wait,
// with a tighter deadline on the second attempt.
func (g *GoogleGeocoder) request(ctx context.Context, query url.Values) (*geocodeResponse, error) {
	resp, err := g.doRequest(ctx, query, 15*time.Second)
	if err == nil {
		return resp, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(g.retryWait):
	}
	return g.doRequest(ctx, query, 10*time.Second)
}

func (g *GoogleGeocoder) doRequest(ctx context.Context, query url.Values, timeout time.Duration) (*geocodeResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request failed: status %d", httpResp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if decoded.Status != "OK" && decoded.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("geocode request failed: %s", decoded.Status)
	}
	return &decoded, nil
}

// Candidate score weights. The street name dominates; an org-name hit
// in the formatted address is a strong corroboration.
const (
	streetWeight  = 0.35
	cityWeight    = 0.25
	orgWeight     = 0.25
	numberWeight  = 0.10
	countryWeight = 0.05
	minConfidence = 0.35
)

func (g *GoogleGeocoder) bestCandidate(resp *geocodeResponse, comp dto.AddressComponents, orgName string) *dto.GeocodeResult {
	var best *dto.GeocodeResult
	for _, r := range resp.Results {
		formatted := strings.ToLower(r.FormattedAddress)
		score := 0.0
		streetHit := comp.Street != "" && containsToken(formatted, comp.Street)
		numberHit := comp.HouseNumber != "" && strings.Contains(formatted, strings.ToLower(comp.HouseNumber))
		cityHit := comp.City != "" && strings.Contains(formatted, strings.ToLower(comp.City))

		if streetHit {
			score += streetWeight
		}
		if cityHit {
			score += cityWeight
		}
		if numberHit {
			score += numberWeight
		}
		if strings.Contains(formatted, "türkiye") || strings.Contains(formatted, "turkey") {
			score += countryWeight
		}
		if orgName != "" && containsToken(formatted, orgName) {
			score += orgWeight
		}
		if score < minConfidence {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &dto.GeocodeResult{
				Lat:              r.Geometry.Location.Lat,
				Lng:              r.Geometry.Location.Lng,
				FormattedAddress: r.FormattedAddress,
				Confidence:       score,
				IsPerfect:        streetHit && numberHit && cityHit,
			}
		}
	}
	return best
}

// containsToken checks whether any distinctive word of the needle
// appears in the haystack; exact full-string containment is too
// strict for formatted addresses.
func containsToken(haystack, needle string) bool {
	for _, word := range strings.Fields(strings.ToLower(needle)) {
		if len(word) < 4 {
			continue
		}
		if strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}
