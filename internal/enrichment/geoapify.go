package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aanand-mishra/homeowners-api/internal/types"
)

const geocodePath = "/v1/geocode/search"

// Geoapify resolves addresses with the Geoapify geocoding API.
type Geoapify struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGeoapify returns a client for the provider rooted at baseURL.
// Every lookup is bounded by timeout.
func NewGeoapify(baseURL, apiKey string, timeout time.Duration) *Geoapify {
	return &Geoapify{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// featureCollection is the subset of the GeoJSON answer we read.
type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode returns the coordinates of the first feature matching address.
func (g *Geoapify) Geocode(ctx context.Context, address string) (types.Coordinates, error) {
	query := url.Values{}
	query.Set("text", address)
	query.Set("apiKey", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+geocodePath+"?"+query.Encode(), nil)
	if err != nil {
		return types.Coordinates{}, fmt.Errorf("%w: build request: %w", ErrGeocodeUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return types.Coordinates{}, fmt.Errorf("%w: %w", ErrGeocodeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return types.Coordinates{}, fmt.Errorf("%w: provider answered %s", ErrGeocodeUnavailable, resp.Status)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return types.Coordinates{}, fmt.Errorf("%w: decode response: %w", ErrGeocodeUnavailable, err)
	}

	if len(fc.Features) == 0 || len(fc.Features[0].Geometry.Coordinates) < 2 {
		return types.Coordinates{}, ErrNoCoordinates
	}

	c := fc.Features[0].Geometry.Coordinates
	return types.NewCoordinates(c[0], c[1]), nil
}
