// Package agent orchestrates the question pipeline: intent analysis, data
// retrieval, indicator augmentation and answer composition.
package agent

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	apperrors "vnquery/internal/errors"
	"vnquery/internal/indicators"
	"vnquery/internal/intent"
	"vnquery/internal/llm"
	"vnquery/internal/logging"
	"vnquery/internal/market"
	"vnquery/internal/table"
	"vnquery/internal/timerange"
	"vnquery/internal/trace"
)

// narrativeMinLength is the threshold below which a narrative is considered
// noise (an error fragment or empty filler) and dropped from the answer.
const narrativeMinLength = 50

// defaultLookbackPhrase is used when the question carried no time phrase.
const defaultLookbackPhrase = "30 ngày"

// Meta describes how an answer was produced.
type Meta struct {
	Action        string   `json:"action"`
	Symbols       []string `json:"symbols"`
	Start         string   `json:"start,omitempty"`
	End           string   `json:"end,omitempty"`
	FailedSymbols []string `json:"failed_symbols,omitempty"`
}

// Result is the terminal artifact of one question.
type Result struct {
	Answer string                   `json:"answer"`
	Data   []map[string]interface{} `json:"data,omitempty"`
	Meta   *Meta                    `json:"meta,omitempty"`
}

// Agent answers free-text questions about Vietnamese equities.
type Agent struct {
	svc        *market.Service
	llm        llm.Client
	logger     zerolog.Logger
	now        func() time.Time
	traceDir   string
	traceStore *trace.Store
}

// Option configures an Agent.
type Option func(*Agent)

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// WithTraceDir enables per-request JSON trace files under dir.
func WithTraceDir(dir string) Option {
	return func(a *Agent) {
		a.traceDir = dir
	}
}

// WithTraceStore enables trace persistence to SQLite.
func WithTraceStore(store *trace.Store) Option {
	return func(a *Agent) {
		a.traceStore = store
	}
}

// New creates an Agent. client may be nil when no LLM is configured; such an
// agent answers every question with the not-configured message.
func New(svc *market.Service, client llm.Client, logger zerolog.Logger, opts ...Option) *Agent {
	a := &Agent{
		svc:    svc,
		llm:    client,
		logger: logging.WithComponent(logger, "agent"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LLMReady reports whether the LLM capability is usable.
func (a *Agent) LLMReady() bool {
	return llm.Ready(a.llm)
}

// LLMInfo describes the configured LLM, if any.
func (a *Agent) LLMInfo() llm.Info {
	if a.llm == nil {
		return llm.Info{}
	}
	return a.llm.Info()
}

// Handle answers one question. Every internal failure is converted into a
// user-facing answer string; Handle never fails.
func (a *Agent) Handle(ctx context.Context, question string, useLLM bool) Result {
	logging.LogQuestion(a.logger, question, useLLM)

	rec := trace.NewRecorder()
	rec.SetQuestion(question)
	ctx = trace.WithRecorder(ctx, rec)

	result := a.handle(ctx, question, useLLM, rec)
	if result.Answer == "" {
		result.Answer = msgNoAnswer
	}

	rec.SetAnswer(result.Answer)
	a.saveTrace(ctx, rec)
	return result
}

func (a *Agent) handle(ctx context.Context, question string, useLLM bool, rec *trace.Recorder) Result {
	if !useLLM || !llm.Ready(a.llm) {
		return Result{Answer: msgNotConfigured}
	}

	req, err := a.analyzeQuestion(ctx, question)
	if err != nil {
		a.logger.Warn().Err(err).Str("question", question).Msg("intent analysis failed")
		return Result{Answer: userMessage(err)}
	}
	rec.SetAnalysis(req.Analysis())

	var start, end string
	if req.HasRange() {
		start = req.Start.Format(timerange.DateFormat)
		end = req.End.Format(timerange.DateFormat)
	}
	logging.LogIntent(a.logger, string(req.Action), req.Symbols, start, end)

	rows, meta, err := a.fetchData(ctx, req)
	if err != nil {
		a.logger.Warn().Err(err).Str("action", string(req.Action)).Msg("data fetch failed")
		return Result{Answer: userMessage(err)}
	}
	rec.SetDataSummary(map[string]interface{}{
		"type": string(req.Action),
		"rows": len(rows.Records),
	})

	narrative := a.generateNarrative(ctx, question, req, rows)
	answer := Compose(narrative, rows)

	return Result{
		Answer: answer,
		Data:   exportRecords(rows.Records),
		Meta:   meta,
	}
}

// analyzeQuestion runs the intent analysis prompt and normalizes its output.
func (a *Agent) analyzeQuestion(ctx context.Context, question string) (*intent.Request, error) {
	text, err := llm.Generate(ctx, a.llm, analysisPrompt(question))
	if err != nil {
		return nil, apperrors.NewParseError("", err)
	}
	return intent.Normalize(text, a.now())
}

// fetchData retrieves the rows the action needs. Company actions use the
// first symbol only; price actions fan out when more than one symbol is
// requested.
func (a *Agent) fetchData(ctx context.Context, req *intent.Request) (market.RowSet, *Meta, error) {
	meta := &Meta{Action: string(req.Action), Symbols: req.Symbols}
	symbol := req.Symbols[0]

	switch req.Action {
	case intent.ActionCompanyInfo:
		rows, err := a.svc.Overview(ctx, symbol)
		return rows, meta, err
	case intent.ActionShareholders:
		rows, err := a.svc.Shareholders(ctx, symbol)
		return rows, meta, err
	case intent.ActionOfficers:
		rows, err := a.svc.Officers(ctx, symbol)
		return rows, meta, err
	case intent.ActionSubsidiaries:
		rows, err := a.svc.Subsidiaries(ctx, symbol)
		return rows, meta, err
	}

	start, end := req.Start, req.End
	if !req.HasRange() {
		start, end = timerange.Resolve(defaultLookbackPhrase, a.now())
	}
	meta.Start = start.Format(timerange.DateFormat)
	meta.End = end.Format(timerange.DateFormat)

	multi := len(req.Symbols) > 1
	var quotes []market.Quote
	if multi {
		result := a.svc.HistoryMany(ctx, req.Symbols, start, end, req.Interval)
		quotes = result.Quotes
		meta.FailedSymbols = result.FailedSymbols()
	} else {
		var err error
		quotes, err = a.svc.History(ctx, symbol, start, end, req.Interval)
		if err != nil {
			return market.RowSet{}, meta, err
		}
	}

	rows := market.QuotesToRowSet(quotes, multi)

	switch req.Action {
	case intent.ActionRSI:
		rows = a.withRSI(rows, quotes, req.Windows)
	case intent.ActionSMA:
		rows = a.withSMA(rows, quotes, req.Windows)
	case intent.ActionCompare, intent.ActionAggregate:
		rows = project(rows, req.DisplayFields)
	}

	return rows, meta, nil
}

// withRSI appends an RSI column computed from the close series.
func (a *Agent) withRSI(rows market.RowSet, quotes []market.Quote, windows []int) market.RowSet {
	window := indicators.DefaultRSIWindow
	if len(windows) > 0 {
		window = windows[0]
	}
	values, err := indicators.RSI(market.Closes(quotes), window)
	if err != nil {
		a.logger.Warn().Err(err).Int("window", window).Msg("rsi computation failed")
		return rows
	}
	return appendColumn(rows, "RSI", values)
}

// withSMA appends one SMA column per requested window.
func (a *Agent) withSMA(rows market.RowSet, quotes []market.Quote, windows []int) market.RowSet {
	if len(windows) == 0 {
		windows = []int{indicators.DefaultSMAWindow}
	}
	closes := market.Closes(quotes)
	for _, window := range windows {
		values, err := indicators.SMA(closes, window)
		if err != nil {
			a.logger.Warn().Err(err).Int("window", window).Msg("sma computation failed")
			continue
		}
		rows = appendColumn(rows, fmt.Sprintf("SMA%d", window), values)
	}
	return rows
}

// appendColumn adds a derived column without touching source columns.
func appendColumn(rows market.RowSet, name string, values []float64) market.RowSet {
	if len(values) != len(rows.Records) {
		return rows
	}
	rows.Columns = append(rows.Columns, name)
	for i, record := range rows.Records {
		record[name] = values[i]
	}
	return rows
}

// project keeps only the requested display fields that actually exist,
// preserving their requested order.
func project(rows market.RowSet, fields []string) market.RowSet {
	if len(fields) == 0 {
		return rows
	}
	available := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, col := range rows.Columns {
			if col == f {
				available = append(available, f)
				break
			}
		}
	}
	if len(available) == 0 {
		return rows
	}

	projected := make([]map[string]interface{}, len(rows.Records))
	for i, record := range rows.Records {
		row := make(map[string]interface{}, len(available))
		for _, f := range available {
			row[f] = record[f]
		}
		projected[i] = row
	}
	return market.RowSet{Columns: available, Records: projected}
}

// generateNarrative asks the LLM for a short analysis over a data sample.
// Failures degrade to a short error fragment that composition will drop.
func (a *Agent) generateNarrative(ctx context.Context, question string, req *intent.Request, rows market.RowSet) string {
	sample := dataSample(req, rows)
	narrative, err := llm.Generate(ctx, a.llm, answerPrompt(question, sample))
	if err != nil {
		a.logger.Warn().Err(err).Msg("narrative generation failed")
		return fmt.Sprintf(narrativeErrFormat, err)
	}
	return narrative
}

// dataSample renders the rows the narrative prompt will see: everything for
// multi-symbol comparisons, everything when small, a head+tail sample
// otherwise.
func dataSample(req *intent.Request, rows market.RowSet) string {
	n := len(rows.Records)
	switch {
	case n == 0:
		return table.EmptyMessage
	case req.Action == intent.ActionCompare && len(req.Symbols) > 1:
		return table.Render(rows, 0, table.StyleHeadTail) +
			fmt.Sprintf(compareTotalFormat, n, len(req.Symbols), joinSymbols(req.Symbols))
	case n <= 20:
		return table.Render(rows, 0, table.StyleHeadTail)
	default:
		sample := table.Render(rows, 10, table.StyleHeadTail)
		return fmt.Sprintf(sampleHeaderFormat, sample, n)
	}
}

// Compose merges the rendered table with the narrative. The answer always
// leads with the row count and the full table; the narrative is appended
// only when long enough to carry signal.
func Compose(narrative string, rows market.RowSet) string {
	if rows.Empty() {
		return narrative
	}

	n := len(rows.Records)
	answer := fmt.Sprintf("Tổng số dòng: %d\n\n=== TẤT CẢ DỮ LIỆU (%d DÒNG) ===\n%s\n",
		n, n, table.Render(rows, 0, table.StyleCompact))

	if len([]rune(narrative)) > narrativeMinLength {
		answer += "\n=== PHÂN TÍCH ===\n" + narrative
	}
	return answer
}

// userMessage maps the error taxonomy onto fixed user-facing strings. No raw
// failure ever reaches the HTTP or CLI boundary.
func userMessage(err error) string {
	var parseErr *apperrors.ParseError
	var actionErr *apperrors.UnsupportedActionError
	switch {
	case apperrors.Is(err, apperrors.ErrNotConfigured):
		return msgNotConfigured
	case apperrors.Is(err, apperrors.ErrMissingSymbol):
		return msgMissingSymbol
	case apperrors.As(err, &actionErr):
		return fmt.Sprintf(unsupportedFormat, actionErr.Action)
	case apperrors.As(err, &parseErr):
		return msgNotUnderstood
	}

	var providerErr *apperrors.ProviderError
	if apperrors.As(err, &providerErr) {
		return fmt.Sprintf(fetchFailureFormat, err)
	}
	return fmt.Sprintf(handleFailureFormat, err)
}

// exportRecords copies records into a JSON-safe form: dates become strings
// and NaN becomes null.
func exportRecords(records []map[string]interface{}) []map[string]interface{} {
	if len(records) == 0 {
		return nil
	}
	out := make([]map[string]interface{}, len(records))
	for i, record := range records {
		row := make(map[string]interface{}, len(record))
		for k, v := range record {
			switch val := v.(type) {
			case time.Time:
				row[k] = val.Format("2006-01-02 15:04:05")
			case float64:
				if math.IsNaN(val) || math.IsInf(val, 0) {
					row[k] = nil
				} else {
					row[k] = val
				}
			default:
				row[k] = v
			}
		}
		out[i] = row
	}
	return out
}

// saveTrace writes the request artifact to the configured sinks.
func (a *Agent) saveTrace(ctx context.Context, rec *trace.Recorder) {
	if a.traceDir != "" {
		path := filepath.Join(a.traceDir, fmt.Sprintf("trace_%d.json", a.now().UnixNano()))
		if err := rec.SaveFile(path); err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("trace file write failed")
		}
	}
	if a.traceStore != nil {
		if err := a.traceStore.Save(ctx, rec.Snapshot()); err != nil {
			a.logger.Warn().Err(err).Msg("trace store write failed")
		}
	}
}
