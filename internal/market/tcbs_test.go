package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "vnquery/internal/errors"
)

func TestTCBSHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock-insight/v1/stock/bars-long-term" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("ticker") != "HPG" || q.Get("resolution") != "D" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data": [
			{"open": 26.0, "high": 26.5, "low": 25.0, "close": 25.5, "volume": 1200000, "tradingDate": "2024-01-16T00:00:00.000Z"},
			{"open": 25.0, "high": 26.0, "low": 24.5, "close": 26.0, "volume": 1000000, "tradingDate": "2024-01-15T00:00:00.000Z"}
		]}`))
	}))
	defer srv.Close()

	p := NewTCBSProvider(WithBaseURL(srv.URL))
	quotes, err := p.History(context.Background(), "HPG",
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), "1D")
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if len(quotes) != 2 {
		t.Fatalf("got %d quotes", len(quotes))
	}
	// Bars arrive newest-first; quotes must be chronological.
	if !quotes[0].Time.Before(quotes[1].Time) {
		t.Error("quotes not sorted by time")
	}
	if quotes[0].Close != 26.0 || quotes[0].Symbol != "HPG" {
		t.Errorf("quotes[0] = %+v", quotes[0])
	}
}

func TestTCBSShareholders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tcanalysis/v1/company/VCB/large-share-holders" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"listShareHolder": [
			{"name": "SCIC", "ownPercent": 74.8},
			{"name": "Mizuho", "ownPercent": 15.0}
		]}`))
	}))
	defer srv.Close()

	p := NewTCBSProvider(WithBaseURL(srv.URL))
	rows, err := p.Shareholders(context.Background(), "VCB")
	if err != nil {
		t.Fatalf("Shareholders: %v", err)
	}
	if len(rows.Records) != 2 {
		t.Fatalf("got %d records", len(rows.Records))
	}
	// Columns are sorted for deterministic rendering.
	if rows.Columns[0] != "name" || rows.Columns[1] != "ownPercent" {
		t.Errorf("columns = %v", rows.Columns)
	}
}

func TestTCBSSingleAttemptOnError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewTCBSProvider(WithBaseURL(srv.URL))

	_, err := p.History(context.Background(), "HPG", time.Now().AddDate(0, 0, -7), time.Now(), "1D")
	if err == nil {
		t.Fatal("expected error")
	}
	var providerErr *apperrors.ProviderError
	if !apperrors.As(err, &providerErr) {
		t.Fatalf("want ProviderError, got %T", err)
	}
	// A transient upstream failure is final for the request: exactly one
	// attempt, no backoff.
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestParseTradingDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-15T00:00:00.000Z", "2024-01-15"},
		{"2024-01-15", "2024-01-15"},
		{"2024-01-15 00:00:00", "2024-01-15"},
	}
	for _, tc := range cases {
		got, err := parseTradingDate(tc.in)
		if err != nil {
			t.Errorf("parseTradingDate(%q): %v", tc.in, err)
			continue
		}
		if got.Format("2006-01-02") != tc.want {
			t.Errorf("parseTradingDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
