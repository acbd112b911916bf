package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	apperrors "vnquery/internal/errors"
	"vnquery/internal/timerange"
)

// DefaultTCBSBaseURL is the public TCBS API host.
const DefaultTCBSBaseURL = "https://apipubaws.tcbs.com.vn"

// TCBSProvider fetches quotes and company data from the TCBS public API.
type TCBSProvider struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

// TCBSOption configures a TCBSProvider.
type TCBSOption func(*TCBSProvider)

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(baseURL string) TCBSOption {
	return func(p *TCBSProvider) {
		p.baseURL = baseURL
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) TCBSOption {
	return func(p *TCBSProvider) {
		p.httpClient.Timeout = timeout
	}
}

// NewTCBSProvider creates a new TCBS API provider.
func NewTCBSProvider(opts ...TCBSOption) *TCBSProvider {
	p := &TCBSProvider{
		baseURL: DefaultTCBSBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			"Accept":     "application/json",
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// tcbsBar is one bar in the bars-long-term response.
type tcbsBar struct {
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      int64   `json:"volume"`
	TradingDate string  `json:"tradingDate"`
}

// resolutions maps pipeline intervals onto TCBS resolutions.
var resolutions = map[string]string{
	"1D": "D",
	"1W": "W",
	"1M": "M",
}

// History fetches OHLCV bars for symbol between start and end.
func (p *TCBSProvider) History(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Quote, error) {
	resolution, ok := resolutions[interval]
	if !ok {
		resolution = "D"
	}

	url := fmt.Sprintf("%s/stock-insight/v1/stock/bars-long-term?ticker=%s&type=stock&resolution=%s&from=%d&to=%d",
		p.baseURL, symbol, resolution, start.Unix(), end.Unix())

	body, err := p.makeRequest(ctx, url)
	if err != nil {
		return nil, apperrors.NewProviderError("tcbs", "history", symbol, err)
	}

	var payload struct {
		Data []tcbsBar `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewProviderError("tcbs", "history", symbol, err)
	}

	quotes := make([]Quote, 0, len(payload.Data))
	for _, bar := range payload.Data {
		t, err := parseTradingDate(bar.TradingDate)
		if err != nil {
			continue
		}
		quotes = append(quotes, Quote{
			Time:   t,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
			Symbol: symbol,
		})
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Time.Before(quotes[j].Time) })
	return quotes, nil
}

// Overview fetches the company profile for symbol.
func (p *TCBSProvider) Overview(ctx context.Context, symbol string) (RowSet, error) {
	return p.companyObject(ctx, symbol, "overview", "overview")
}

// Shareholders fetches the major shareholders of symbol.
func (p *TCBSProvider) Shareholders(ctx context.Context, symbol string) (RowSet, error) {
	return p.companyList(ctx, symbol, "large-share-holders", "shareholders")
}

// Officers fetches the key officers of symbol.
func (p *TCBSProvider) Officers(ctx context.Context, symbol string) (RowSet, error) {
	return p.companyList(ctx, symbol, "key-officers", "officers")
}

// Subsidiaries fetches the subsidiaries of symbol.
func (p *TCBSProvider) Subsidiaries(ctx context.Context, symbol string) (RowSet, error) {
	return p.companyList(ctx, symbol, "sub-companies", "subsidiaries")
}

// companyObject fetches a single-object company endpoint as a one-row set.
func (p *TCBSProvider) companyObject(ctx context.Context, symbol, endpoint, operation string) (RowSet, error) {
	url := fmt.Sprintf("%s/tcanalysis/v1/company/%s/%s", p.baseURL, symbol, endpoint)

	body, err := p.makeRequest(ctx, url)
	if err != nil {
		return RowSet{}, apperrors.NewProviderError("tcbs", operation, symbol, err)
	}

	var record map[string]interface{}
	if err := json.Unmarshal(body, &record); err != nil {
		return RowSet{}, apperrors.NewProviderError("tcbs", operation, symbol, err)
	}
	return rowSetFromRecords([]map[string]interface{}{record}), nil
}

// companyList fetches a paginated company endpoint as a multi-row set.
func (p *TCBSProvider) companyList(ctx context.Context, symbol, endpoint, operation string) (RowSet, error) {
	url := fmt.Sprintf("%s/tcanalysis/v1/company/%s/%s?page=0&size=100", p.baseURL, symbol, endpoint)

	body, err := p.makeRequest(ctx, url)
	if err != nil {
		return RowSet{}, apperrors.NewProviderError("tcbs", operation, symbol, err)
	}

	var payload struct {
		ListShareHolder []map[string]interface{} `json:"listShareHolder"`
		ListKeyOfficer  []map[string]interface{} `json:"listKeyOfficer"`
		ListSubCompany  []map[string]interface{} `json:"listSubCompany"`
		Data            []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return RowSet{}, apperrors.NewProviderError("tcbs", operation, symbol, err)
	}

	records := payload.Data
	if records == nil {
		switch {
		case payload.ListShareHolder != nil:
			records = payload.ListShareHolder
		case payload.ListKeyOfficer != nil:
			records = payload.ListKeyOfficer
		case payload.ListSubCompany != nil:
			records = payload.ListSubCompany
		}
	}
	return rowSetFromRecords(records), nil
}

// makeRequest performs a single GET; a failed request is final for the
// caller, there is no retry layer.
func (p *TCBSProvider) makeRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range p.headers {
		req.Header.Set(key, value)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseTradingDate accepts the two date layouts TCBS responses use.
func parseTradingDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if len(s) > 10 {
		s = s[:10]
	}
	return time.Parse(timerange.DateFormat, s)
}

// rowSetFromRecords derives a deterministic column order from record keys.
func rowSetFromRecords(records []map[string]interface{}) RowSet {
	if len(records) == 0 {
		return RowSet{}
	}
	columns := make([]string, 0, len(records[0]))
	for k := range records[0] {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return RowSet{Columns: columns, Records: records}
}
