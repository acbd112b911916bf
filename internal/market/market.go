// Package market provides Vietnamese market data retrieval with caching and
// bounded-concurrency fan-out.
package market

import (
	"context"
	"time"
)

// Quote represents one OHLCV observation for an instrument.
// Quotes are immutable once fetched.
type Quote struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	Symbol string    `json:"symbol,omitempty"`
}

// RowSet is a generic ordered tabular result, used for company data and for
// handing price data to the rendering pipeline.
type RowSet struct {
	Columns []string
	Records []map[string]interface{}
}

// Empty reports whether the row set has no records.
func (rs RowSet) Empty() bool {
	return len(rs.Records) == 0
}

// Provider is the market-data capability: historical quotes plus company
// fundamentals. Implementations fail with *errors.ProviderError.
type Provider interface {
	History(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Quote, error)
	Overview(ctx context.Context, symbol string) (RowSet, error)
	Shareholders(ctx context.Context, symbol string) (RowSet, error)
	Officers(ctx context.Context, symbol string) (RowSet, error)
	Subsidiaries(ctx context.Context, symbol string) (RowSet, error)
}

// QuoteColumns is the canonical column order for price history.
var QuoteColumns = []string{"time", "open", "high", "low", "close", "volume"}

// QuotesToRowSet converts quotes into the generic tabular form. When
// withSymbol is set, a symbol column is prepended for multi-symbol results.
func QuotesToRowSet(quotes []Quote, withSymbol bool) RowSet {
	columns := make([]string, 0, len(QuoteColumns)+1)
	if withSymbol {
		columns = append(columns, "symbol")
	}
	columns = append(columns, QuoteColumns...)

	records := make([]map[string]interface{}, 0, len(quotes))
	for _, q := range quotes {
		rec := map[string]interface{}{
			"time":   q.Time,
			"open":   q.Open,
			"high":   q.High,
			"low":    q.Low,
			"close":  q.Close,
			"volume": q.Volume,
		}
		if withSymbol {
			rec["symbol"] = q.Symbol
		}
		records = append(records, rec)
	}
	return RowSet{Columns: columns, Records: records}
}

// Closes extracts the close price series from quotes.
func Closes(quotes []Quote) []float64 {
	closes := make([]float64, len(quotes))
	for i, q := range quotes {
		closes[i] = q.Close
	}
	return closes
}
