// Package routing resolves driving times through the OpenRouteService
// matrix API.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Irehund/JobTrack/internal/model"
)

const (
	orsMatrixURL = "https://api.openrouteservice.org/v2/matrix/driving-car"

	// MaxDestinations is the matrix API's per-request destination limit.
	MaxDestinations = 50
)

type orsMatrixRequest struct {
	Locations    [][2]float64 `json:"locations"` // [lon, lat]
	Sources      []int        `json:"sources"`
	Destinations []int        `json:"destinations"`
	Metrics      []string     `json:"metrics"`
}

type orsMatrixResponse struct {
	Durations [][]*float64 `json:"durations"` // seconds, null when unroutable
}

// ORSRouter implements model.Router against OpenRouteService.
type ORSRouter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewORSRouter creates a router authenticating with apiKey.
func NewORSRouter(apiKey string, client *http.Client) *ORSRouter {
	return &ORSRouter{
		apiKey:  apiKey,
		baseURL: orsMatrixURL,
		client:  client,
	}
}

// BatchRoute returns driving minutes from origin to each destination, in
// order. Unroutable destinations are nil.
func (r *ORSRouter) BatchRoute(ctx context.Context, origin model.Coordinates, destinations []model.Coordinates) ([]*int, error) {
	if len(destinations) == 0 {
		return nil, nil
	}
	if len(destinations) > MaxDestinations {
		return nil, fmt.Errorf("openrouteservice matrix: %d destinations exceeds limit of %d", len(destinations), MaxDestinations)
	}

	body := orsMatrixRequest{
		Locations:    make([][2]float64, 0, len(destinations)+1),
		Sources:      []int{0},
		Destinations: make([]int, len(destinations)),
		Metrics:      []string{"duration"},
	}
	body.Locations = append(body.Locations, [2]float64{origin.Lon, origin.Lat})
	for i, d := range destinations {
		body.Locations = append(body.Locations, [2]float64{d.Lon, d.Lat})
		body.Destinations[i] = i + 1
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openrouteservice matrix marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("openrouteservice matrix request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouteservice matrix fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("openrouteservice matrix: unexpected status %d", resp.StatusCode),
		}
	}

	var matrix orsMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&matrix); err != nil {
		return nil, fmt.Errorf("openrouteservice matrix decode: %w", err)
	}
	if len(matrix.Durations) == 0 || len(matrix.Durations[0]) != len(destinations) {
		return nil, fmt.Errorf("openrouteservice matrix: expected %d durations, got malformed matrix", len(destinations))
	}

	out := make([]*int, len(destinations))
	for i, secs := range matrix.Durations[0] {
		if secs == nil {
			continue
		}
		minutes := int(math.Round(*secs / 60))
		out[i] = &minutes
	}
	return out, nil
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
