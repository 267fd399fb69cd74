package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Irehund/JobTrack/internal/model"
)

func newTestRouter(srv *httptest.Server) *ORSRouter {
	r := NewORSRouter("test-key", srv.Client())
	r.baseURL = srv.URL
	return r
}

var home = model.Coordinates{Lat: 32.7459, Lon: -96.4685}

func TestBatchRoute_Success(t *testing.T) {
	var got orsMatrixRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "test-key" {
			t.Errorf("expected Authorization test-key, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"durations": [[1500.0, null, 89.0]]}`))
	}))
	defer srv.Close()

	dests := []model.Coordinates{
		{Lat: 32.7767, Lon: -96.7970},
		{Lat: 21.3069, Lon: -157.8583},
		{Lat: 32.75, Lon: -96.47},
	}
	minutes, err := newTestRouter(srv).BatchRoute(context.Background(), home, dests)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Locations) != 4 {
		t.Fatalf("expected 4 locations, got %d", len(got.Locations))
	}
	if got.Locations[0] != [2]float64{-96.4685, 32.7459} {
		t.Errorf("origin must be sent as [lon, lat], got %v", got.Locations[0])
	}
	if len(got.Sources) != 1 || got.Sources[0] != 0 {
		t.Errorf("unexpected sources %v", got.Sources)
	}
	if len(got.Destinations) != 3 || got.Destinations[0] != 1 || got.Destinations[2] != 3 {
		t.Errorf("unexpected destinations %v", got.Destinations)
	}

	if len(minutes) != 3 {
		t.Fatalf("expected 3 results, got %d", len(minutes))
	}
	if minutes[0] == nil || *minutes[0] != 25 {
		t.Errorf("expected 25 minutes, got %v", minutes[0])
	}
	if minutes[1] != nil {
		t.Errorf("expected nil for unroutable destination, got %d", *minutes[1])
	}
	if minutes[2] == nil || *minutes[2] != 1 {
		t.Errorf("expected 89s to round to 1 minute, got %v", minutes[2])
	}
}

func TestBatchRoute_TooManyDestinations(t *testing.T) {
	r := NewORSRouter("k", http.DefaultClient)
	_, err := r.BatchRoute(context.Background(), home, make([]model.Coordinates, MaxDestinations+1))
	if err == nil {
		t.Fatal("expected error for 51 destinations")
	}
}

func TestBatchRoute_EmptyDestinations(t *testing.T) {
	r := NewORSRouter("k", http.DefaultClient)
	minutes, err := r.BatchRoute(context.Background(), home, nil)
	if err != nil || minutes != nil {
		t.Fatalf("expected nil, nil; got %v, %v", minutes, err)
	}
}

func TestBatchRoute_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestRouter(srv).BatchRoute(context.Background(), home, []model.Coordinates{{Lat: 1, Lon: 1}})
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.RetryAfter != time.Minute {
		t.Errorf("unexpected error %+v", httpErr)
	}
	if model.Classify(err) != model.KindRateLimited {
		t.Errorf("expected rate limited kind, got %v", model.Classify(err))
	}
}

func TestBatchRoute_MalformedMatrix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"durations": [[60.0]]}`))
	}))
	defer srv.Close()

	_, err := newTestRouter(srv).BatchRoute(context.Background(), home, []model.Coordinates{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}})
	if err == nil {
		t.Fatal("expected error for short matrix")
	}
}
