package fetcher

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPaprikaFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tickers" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
            {"symbol":"eth","quotes":{"USD":{"price":3000,"percent_change_24h":-42.5,"volume_24h":2e10,"market_cap":4e11}}},
            {"symbol":"dust","quotes":{"USD":{"price":0.001,"percent_change_24h":5}}}
        ]`))
	}))
	defer srv.Close()

	p := NewPaprika(PaprikaOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	snaps, err := p.FetchSnapshots(context.Background())
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}

	if snaps[0].Symbol != "ETH" || snaps[0].Pct24h != -42.5 {
		t.Fatalf("unexpected first snapshot: %#v", snaps[0])
	}
	if !math.IsNaN(snaps[1].Volume24h) || !math.IsNaN(snaps[1].MarketCap) {
		t.Fatalf("missing quote fields must decode to NaN, got %#v", snaps[1])
	}
}

func TestPaprikaBadFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":"object"}`))
	}))
	defer srv.Close()

	p := NewPaprika(PaprikaOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := p.FetchSnapshots(context.Background()); err == nil {
		t.Fatal("non-array payload should return an error")
	}
}

func TestPaprikaHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewPaprika(PaprikaOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := p.FetchSnapshots(context.Background()); err == nil {
		t.Fatal("HTTP 502 should return an error")
	}
}
