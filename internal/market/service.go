package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vnquery/internal/cache"
	"vnquery/internal/logging"
	"vnquery/internal/pool"
	"vnquery/internal/timerange"
	"vnquery/internal/trace"
)

// ServiceConfig holds data-retrieval tuning.
type ServiceConfig struct {
	CacheCapacity int // distinct (symbol, start, end, interval) keys; default 128
	FetchWorkers  int // bounded fan-out for multi-symbol fetches; default 5
}

// historyKey identifies one cached history fetch.
type historyKey struct {
	Symbol   string
	Start    string
	End      string
	Interval string
}

// FetchFailure records a per-symbol provider failure during a fan-out fetch.
type FetchFailure struct {
	Symbol string
	Err    error
}

// HistoryResult carries the successful rows of a multi-symbol fetch together
// with the symbols that failed. Failures never abort the batch.
type HistoryResult struct {
	Quotes []Quote
	Failed []FetchFailure
}

// FailedSymbols lists the symbols whose fetch failed.
func (r HistoryResult) FailedSymbols() []string {
	symbols := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		symbols = append(symbols, f.Symbol)
	}
	return symbols
}

// Service retrieves market data through a Provider, memoizing history
// fetches in a bounded LRU cache and fanning multi-symbol requests out
// over a fixed worker pool.
type Service struct {
	provider Provider
	cache    *cache.LRU[historyKey, string]
	pool     *pool.WorkerPool
	logger   zerolog.Logger
}

// NewService creates a data-retrieval service. The worker pool starts
// immediately; call Close when done.
func NewService(provider Provider, cfg ServiceConfig, logger zerolog.Logger) *Service {
	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = cache.DefaultCapacity
	}
	workers := cfg.FetchWorkers
	if workers <= 0 {
		workers = pool.DefaultWorkers
	}

	s := &Service{
		provider: provider,
		cache:    cache.NewLRU[historyKey, string](capacity),
		pool:     pool.NewWorkerPool(workers),
		logger:   logging.WithComponent(logger, "market"),
	}
	s.pool.Start()
	return s
}

// Close stops the fetch worker pool.
func (s *Service) Close() {
	s.pool.Stop()
}

// History fetches OHLCV rows for one symbol. Identical (symbol, start, end,
// interval) requests within the cache's capacity window hit the cache and
// make no provider call. Cached entries are write-once: the serialized rows
// are decoded fresh per call so callers never share mutable state.
func (s *Service) History(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Quote, error) {
	key := historyKey{
		Symbol:   symbol,
		Start:    start.Format(timerange.DateFormat),
		End:      end.Format(timerange.DateFormat),
		Interval: interval,
	}

	trace.RecordAPICall(ctx, "history", map[string]interface{}{
		"symbol": symbol, "start": key.Start, "end": key.End, "interval": interval,
	}, fmt.Sprintf("Lấy dữ liệu giá %s từ %s đến %s", symbol, key.Start, key.End))

	symLog := logging.WithSymbol(s.logger, symbol)
	if serialized, ok := s.cache.Get(key); ok {
		symLog.Debug().Msg("history cache hit")
		return decodeQuotes(serialized)
	}

	began := time.Now()
	quotes, err := s.provider.History(ctx, symbol, start, end, interval)
	logging.LogAPICall(symLog, "tcbs", "history", time.Since(began), err)
	if err != nil {
		return nil, err
	}
	symLog.Debug().Int("rows", len(quotes)).Msg("history fetched")

	serialized, err := encodeQuotes(quotes)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, serialized)
	return quotes, nil
}

// HistoryMany fetches several symbols concurrently over the bounded worker
// pool and concatenates rows in completion order. Symbols whose fetch fails
// are dropped from the rows and reported in the result's Failed list; an
// all-failed batch yields an empty row set, not an error.
func (s *Service) HistoryMany(ctx context.Context, symbols []string, start, end time.Time, interval string) HistoryResult {
	type outcome struct {
		symbol string
		quotes []Quote
		err    error
	}

	results := make(chan outcome, len(symbols))
	submitted := 0
	var out HistoryResult
	for _, symbol := range symbols {
		symbol := symbol
		ok := s.pool.Submit(func() {
			quotes, err := s.History(ctx, symbol, start, end, interval)
			results <- outcome{symbol: symbol, quotes: quotes, err: err}
		})
		if !ok {
			out.Failed = append(out.Failed, FetchFailure{Symbol: symbol, Err: fmt.Errorf("fetch pool stopped")})
			continue
		}
		submitted++
	}

	for i := 0; i < submitted; i++ {
		res := <-results
		if res.err != nil {
			s.logger.Warn().Err(res.err).Str("symbol", res.symbol).Msg("dropping failed symbol from batch")
			out.Failed = append(out.Failed, FetchFailure{Symbol: res.symbol, Err: res.err})
			continue
		}
		out.Quotes = append(out.Quotes, res.quotes...)
	}
	return out
}

// Overview fetches the company profile for symbol.
func (s *Service) Overview(ctx context.Context, symbol string) (RowSet, error) {
	trace.RecordAPICall(ctx, "company_overview", map[string]interface{}{"symbol": symbol},
		fmt.Sprintf("Lấy thông tin công ty %s", symbol))
	return s.companyCall(ctx, symbol, "overview", s.provider.Overview)
}

// Shareholders fetches the major shareholders of symbol.
func (s *Service) Shareholders(ctx context.Context, symbol string) (RowSet, error) {
	trace.RecordAPICall(ctx, "company_shareholders", map[string]interface{}{"symbol": symbol},
		fmt.Sprintf("Lấy danh sách cổ đông %s", symbol))
	return s.companyCall(ctx, symbol, "shareholders", s.provider.Shareholders)
}

// Officers fetches the key officers of symbol.
func (s *Service) Officers(ctx context.Context, symbol string) (RowSet, error) {
	trace.RecordAPICall(ctx, "company_officers", map[string]interface{}{"symbol": symbol},
		fmt.Sprintf("Lấy ban lãnh đạo %s", symbol))
	return s.companyCall(ctx, symbol, "officers", s.provider.Officers)
}

// Subsidiaries fetches the subsidiaries of symbol.
func (s *Service) Subsidiaries(ctx context.Context, symbol string) (RowSet, error) {
	trace.RecordAPICall(ctx, "company_subsidiaries", map[string]interface{}{"symbol": symbol},
		fmt.Sprintf("Lấy công ty con %s", symbol))
	return s.companyCall(ctx, symbol, "subsidiaries", s.provider.Subsidiaries)
}

func (s *Service) companyCall(ctx context.Context, symbol, operation string, fetch func(context.Context, string) (RowSet, error)) (RowSet, error) {
	began := time.Now()
	rows, err := fetch(ctx, symbol)
	logging.LogAPICall(logging.WithSymbol(s.logger, symbol), "tcbs", operation, time.Since(began), err)
	return rows, err
}

func encodeQuotes(quotes []Quote) (string, error) {
	data, err := json.Marshal(quotes)
	if err != nil {
		return "", fmt.Errorf("serializing quotes: %w", err)
	}
	return string(data), nil
}

func decodeQuotes(serialized string) ([]Quote, error) {
	var quotes []Quote
	if err := json.Unmarshal([]byte(serialized), &quotes); err != nil {
		return nil, fmt.Errorf("deserializing cached quotes: %w", err)
	}
	return quotes, nil
}
