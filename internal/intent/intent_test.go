package intent

import (
	"testing"
	"time"

	apperrors "vnquery/internal/errors"
)

var testNow = time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

func TestNormalizePlainJSON(t *testing.T) {
	raw := `{"action": "price_history", "symbols": ["HPG"], "time_phrase": "10 ngày", "interval": "1D"}`

	req, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if req.Action != ActionPriceHistory {
		t.Errorf("Action = %s, want price_history", req.Action)
	}
	if len(req.Symbols) != 1 || req.Symbols[0] != "HPG" {
		t.Errorf("Symbols = %v, want [HPG]", req.Symbols)
	}
	if !req.HasRange() {
		t.Fatal("expected a resolved time range")
	}
	if got := req.Start.Format("2006-01-02"); got != "2024-01-21" {
		t.Errorf("Start = %s, want 2024-01-21", got)
	}
	if got := req.End.Format("2006-01-02"); got != "2024-01-31" {
		t.Errorf("End = %s, want 2024-01-31", got)
	}
}

func TestNormalizeStripsFence(t *testing.T) {
	raw := "```json\n{\"action\": \"rsi\", \"symbols\": [\"VIC\"], \"windows\": [14]}\n```"

	req, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if req.Action != ActionRSI {
		t.Errorf("Action = %s, want rsi", req.Action)
	}
	if len(req.Windows) != 1 || req.Windows[0] != 14 {
		t.Errorf("Windows = %v, want [14]", req.Windows)
	}
}

func TestNormalizeBareFence(t *testing.T) {
	raw := "```\n{\"action\": \"sma\", \"symbols\": [\"FPT\"], \"windows\": [9, 20]}\n```"

	req, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(req.Windows) != 2 || req.Windows[0] != 9 || req.Windows[1] != 20 {
		t.Errorf("Windows = %v, want [9 20]", req.Windows)
	}
}

func TestNormalizeScalarWindow(t *testing.T) {
	raw := `{"action": "rsi", "symbols": ["VIC"], "windows": 14}`

	req, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(req.Windows) != 1 || req.Windows[0] != 14 {
		t.Errorf("Windows = %v, want [14]", req.Windows)
	}
}

func TestNormalizeUnsupportedAction(t *testing.T) {
	raw := `{"action": "dividends", "symbols": ["VCB"]}`

	_, err := Normalize(raw, testNow)
	if !apperrors.Is(err, apperrors.ErrUnsupportedAction) {
		t.Errorf("err = %v, want ErrUnsupportedAction", err)
	}
}

func TestNormalizeMissingSymbols(t *testing.T) {
	for _, raw := range []string{
		`{"action": "price_history"}`,
		`{"action": "price_history", "symbols": []}`,
		`{"action": "price_history", "symbols": ["  "]}`,
	} {
		if _, err := Normalize(raw, testNow); !apperrors.Is(err, apperrors.ErrMissingSymbol) {
			t.Errorf("Normalize(%s) err = %v, want ErrMissingSymbol", raw, err)
		}
	}
}

func TestNormalizeMalformed(t *testing.T) {
	_, err := Normalize("xin lỗi, tôi không chắc", testNow)
	var parseErr *apperrors.ParseError
	if !apperrors.As(err, &parseErr) {
		t.Errorf("err = %v, want *ParseError", err)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := `{"action": "price_history", "symbols": ["vcb"]}`

	req, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if req.Interval != "1D" {
		t.Errorf("Interval = %q, want 1D", req.Interval)
	}
	if req.Symbols[0] != "VCB" {
		t.Errorf("Symbols = %v, want upper-cased [VCB]", req.Symbols)
	}
	if req.HasRange() {
		t.Error("expected no range without a time phrase")
	}
}

func TestNormalizeDisplayFields(t *testing.T) {
	raw := `{"action": "compare", "symbols": ["VCB", "HPG"], "display_fields": ["volume"]}`

	req, err := Normalize(raw, testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []string{"symbol", "time", "volume"}
	if len(req.DisplayFields) != len(want) {
		t.Fatalf("DisplayFields = %v, want %v", req.DisplayFields, want)
	}
	for i, f := range want {
		if req.DisplayFields[i] != f {
			t.Errorf("DisplayFields[%d] = %q, want %q", i, req.DisplayFields[i], f)
		}
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```json\n{\"a\":1}\n```  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := StripFence(tt.in); got != tt.want {
			t.Errorf("StripFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
