// Package intent normalizes free-text LLM output into validated structured
// requests.
package intent

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "vnquery/internal/errors"
	"vnquery/internal/timerange"
)

// Action is the closed set of operations a question can map to.
type Action string

const (
	ActionPriceHistory Action = "price_history"
	ActionShareholders Action = "shareholders"
	ActionOfficers     Action = "officers"
	ActionSubsidiaries Action = "subsidiaries"
	ActionCompanyInfo  Action = "company_info"
	ActionRSI          Action = "rsi"
	ActionSMA          Action = "sma"
	ActionCompare      Action = "compare"
	ActionAggregate    Action = "aggregate"
)

var validActions = map[Action]bool{
	ActionPriceHistory: true,
	ActionShareholders: true,
	ActionOfficers:     true,
	ActionSubsidiaries: true,
	ActionCompanyInfo:  true,
	ActionRSI:          true,
	ActionSMA:          true,
	ActionCompare:      true,
	ActionAggregate:    true,
}

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	return validActions[a]
}

// NeedsHistory reports whether the action consumes price history rows.
func (a Action) NeedsHistory() bool {
	switch a {
	case ActionPriceHistory, ActionRSI, ActionSMA, ActionCompare, ActionAggregate:
		return true
	}
	return false
}

// Request is a validated structured request. It is created once per question
// and not mutated after time-range enrichment.
type Request struct {
	Action        Action
	Symbols       []string
	TimePhrase    string
	Start         time.Time // zero when the question carried no time phrase
	End           time.Time
	Interval      string
	Windows       []int
	DisplayFields []string
}

// HasRange reports whether a time range was resolved.
func (r *Request) HasRange() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Analysis returns the request as a generic map for trace recording.
func (r *Request) Analysis() map[string]interface{} {
	m := map[string]interface{}{
		"action":   string(r.Action),
		"symbols":  r.Symbols,
		"interval": r.Interval,
	}
	if r.TimePhrase != "" {
		m["time_phrase"] = r.TimePhrase
	}
	if r.HasRange() {
		m["start"] = r.Start.Format(timerange.DateFormat)
		m["end"] = r.End.Format(timerange.DateFormat)
	}
	if len(r.Windows) > 0 {
		m["windows"] = r.Windows
	}
	if len(r.DisplayFields) > 0 {
		m["display_fields"] = r.DisplayFields
	}
	return m
}

// windowList accepts both a JSON array and a bare number, since models emit
// either shape for a single window.
type windowList []int

func (w *windowList) UnmarshalJSON(data []byte) error {
	var many []float64
	if err := json.Unmarshal(data, &many); err == nil {
		*w = make(windowList, 0, len(many))
		for _, v := range many {
			*w = append(*w, int(v))
		}
		return nil
	}
	var one float64
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*w = windowList{int(one)}
	return nil
}

type payload struct {
	Action        string     `json:"action"`
	Symbols       []string   `json:"symbols"`
	TimePhrase    string     `json:"time_phrase"`
	Interval      string     `json:"interval"`
	Windows       windowList `json:"windows"`
	DisplayFields []string   `json:"display_fields"`
}

// Normalize parses raw LLM output into a validated Request, resolving any
// time phrase against now. Failures carry the error taxonomy the caller maps
// to user messages: *errors.ParseError, ErrUnsupportedAction, ErrMissingSymbol.
func Normalize(raw string, now time.Time) (*Request, error) {
	text := StripFence(raw)

	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, apperrors.NewParseError(raw, err)
	}

	action := Action(p.Action)
	if !action.Valid() {
		return nil, apperrors.NewUnsupportedActionError(p.Action)
	}

	symbols := make([]string, 0, len(p.Symbols))
	for _, s := range p.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		return nil, apperrors.ErrMissingSymbol
	}

	interval := p.Interval
	if interval == "" {
		interval = "1D"
	}

	req := &Request{
		Action:        action,
		Symbols:       symbols,
		TimePhrase:    p.TimePhrase,
		Interval:      interval,
		Windows:       []int(p.Windows),
		DisplayFields: normalizeDisplayFields(p.DisplayFields, len(symbols) > 1),
	}

	if p.TimePhrase != "" {
		req.Start, req.End = timerange.Resolve(p.TimePhrase, now)
	}

	return req, nil
}

// normalizeDisplayFields forces the time column first and, for multi-symbol
// requests, prepends a symbol column.
func normalizeDisplayFields(fields []string, multiSymbol bool) []string {
	if len(fields) == 0 {
		return nil
	}
	if !contains(fields, "time") {
		fields = append([]string{"time"}, fields...)
	}
	if multiSymbol && !contains(fields, "symbol") {
		fields = append([]string{"symbol"}, fields...)
	}
	return fields
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// StripFence removes surrounding triple-backtick code fences, optionally
// annotated with a language tag, and trims whitespace.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		// Drop a language annotation such as "json" on the fence line.
		first := strings.TrimSpace(text[:idx])
		if first == "" || isLanguageTag(first) {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
