package table

import (
	"math"
	"strings"
	"testing"
	"time"

	"vnquery/internal/market"
)

func ohlcvRecord(day int, symbol string) map[string]interface{} {
	return map[string]interface{}{
		"time":   time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
		"symbol": symbol,
		"open":   25.1,
		"high":   25.9,
		"low":    24.8,
		"close":  25.5,
		"volume": int64(1_500_000),
	}
}

func TestRenderColumnOrder(t *testing.T) {
	rs := market.RowSet{
		Columns: []string{"time", "symbol", "open", "high", "low", "close", "volume"},
		Records: []map[string]interface{}{ohlcvRecord(2, "VCB")},
	}

	out := Render(rs, 0, StyleCompact)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + separator + 1 row", len(lines))
	}

	header := strings.Fields(lines[0])
	want := []string{"symbol", "time", "open", "high", "low", "close", "volume"}
	if len(header) != len(want) {
		t.Fatalf("header = %v, want %v", header, want)
	}
	for i, col := range want {
		if header[i] != col {
			t.Errorf("header[%d] = %q, want %q", i, header[i], col)
		}
	}
}

func TestRenderSeparatorWidths(t *testing.T) {
	rs := market.RowSet{
		Columns: []string{"time", "symbol", "open", "high", "low", "close", "volume"},
		Records: []map[string]interface{}{ohlcvRecord(2, "VCB"), ohlcvRecord(3, "VCB")},
	}

	out := Render(rs, 0, StyleCompact)
	lines := strings.Split(out, "\n")

	// Padded cells contain runs of spaces, so splitting lines on the
	// two-space join is ambiguous. Derive each column's width the way the
	// renderer does and check the separator segment by segment.
	columns := []string{"symbol", "time", "open", "high", "low", "close", "volume"}
	segments := make([]string, len(columns))
	for i, col := range columns {
		width := len([]rune(col))
		for _, record := range rs.Records {
			cell := FormatCell(record[col], Classify(col))
			if w := len([]rune(cell)); w > width {
				width = w
			}
		}
		segments[i] = strings.Repeat("-", width)
	}

	if want := strings.Join(segments, "  "); lines[1] != want {
		t.Errorf("separator = %q, want %q", lines[1], want)
	}
	if len([]rune(lines[0])) != len([]rune(lines[1])) {
		t.Errorf("header width %d != separator width %d", len([]rune(lines[0])), len([]rune(lines[1])))
	}
}

func TestRenderFallbackToFullColumns(t *testing.T) {
	rs := market.RowSet{
		Columns: []string{"shareHolderName", "quantity"},
		Records: []map[string]interface{}{
			{"shareHolderName": "ABC Fund", "quantity": int64(120000)},
		},
	}

	out := Render(rs, 0, StyleCompact)
	header := strings.Fields(strings.Split(out, "\n")[0])
	if len(header) != 2 || header[0] != "shareHolderName" || header[1] != "quantity" {
		t.Errorf("header = %v, want full original column set", header)
	}
}

func TestRenderTailTruncation(t *testing.T) {
	rs := market.RowSet{Columns: []string{"time", "close", "volume"}}
	for day := 1; day <= 10; day++ {
		rs.Records = append(rs.Records, map[string]interface{}{
			"time":   time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
			"close":  float64(day),
			"volume": int64(day * 100),
		})
	}

	out := Render(rs, 4, StyleCompact)
	lines := strings.Split(out, "\n")
	if got := len(lines) - 2; got != 4 {
		t.Fatalf("got %d data rows, want 4", got)
	}
	if !strings.Contains(lines[2], "2024-01-07") {
		t.Errorf("first kept row = %q, want the 7th day (trailing rows)", lines[2])
	}
}

func TestRenderHeadTailTruncation(t *testing.T) {
	rs := market.RowSet{Columns: []string{"time", "close"}}
	for day := 1; day <= 20; day++ {
		rs.Records = append(rs.Records, map[string]interface{}{
			"time":  time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
			"close": float64(day),
		})
	}

	out := Render(rs, 10, StyleHeadTail)
	lines := strings.Split(out, "\n")
	if got := len(lines) - 2; got != 10 {
		t.Fatalf("got %d data rows, want 10", got)
	}
	// Head portion first, then the trailing remainder.
	if !strings.Contains(lines[2], "2024-01-01") {
		t.Errorf("first row = %q, want day 1", lines[2])
	}
	if !strings.Contains(lines[6], "2024-01-05") {
		t.Errorf("last head row = %q, want day 5", lines[6])
	}
	if !strings.Contains(lines[7], "2024-01-16") {
		t.Errorf("first tail row = %q, want day 16", lines[7])
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := Render(market.RowSet{}, 0, StyleCompact); got != EmptyMessage {
		t.Errorf("Render(empty) = %q, want %q", got, EmptyMessage)
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		category Category
		want     string
	}{
		{"nil", nil, CategoryNormal, "N/A"},
		{"empty string", "", CategoryNormal, "N/A"},
		{"NaN", math.NaN(), CategoryPrice, "N/A"},
		{"text passthrough", "VCB", CategoryNormal, "VCB"},
		{"date", time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), CategoryDate, "2024-01-02"},
		{"price scales by 1000", 25.5, CategoryPrice, "25,500"},
		{"price fractional", 25.5551, CategoryPrice, "25,555.10"},
		{"volume billions", 2_500_000_000.0, CategoryVolume, "2.5B"},
		{"volume millions", int64(1_500_000), CategoryVolume, "1.5M"},
		{"volume small", int64(950_000), CategoryVolume, "950,000"},
		{"near-integer", 1234.00004, CategoryNormal, "1,234"},
		{"two decimals", 1234.567, CategoryNormal, "1,234.57"},
		{"negative", -1234.5, CategoryNormal, "-1,234.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCell(tt.value, tt.category); got != tt.want {
				t.Errorf("FormatCell(%v, %s) = %q, want %q", tt.value, tt.category, got, tt.want)
			}
		})
	}
}

func TestRenderAlignment(t *testing.T) {
	rs := market.RowSet{
		Columns: []string{"shareHolderName", "quantity"},
		Records: []map[string]interface{}{
			{"shareHolderName": "Dragon Capital Fund", "quantity": int64(5000)},
			{"shareHolderName": "SCIC", "quantity": int64(120000000)},
		},
	}

	out := Render(rs, 0, StyleHeadTail)
	lines := strings.Split(out, "\n")
	// Text cells pad on the right, numeric cells pad on the left.
	if !strings.HasPrefix(lines[3], "SCIC ") {
		t.Errorf("text cell not left-aligned: %q", lines[3])
	}
	if !strings.HasSuffix(lines[2], "5,000") || !strings.HasSuffix(lines[3], "120,000,000") {
		t.Errorf("numeric cells not right-aligned:\n%q\n%q", lines[2], lines[3])
	}
	if len(lines[2]) != len(lines[3]) {
		t.Errorf("row widths differ: %d vs %d", len(lines[2]), len(lines[3]))
	}
}
