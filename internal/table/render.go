package table

import (
	"fmt"
	"math"
	"strings"
	"time"

	"vnquery/internal/market"
	"vnquery/internal/timerange"
)

// Placeholder renders in place of missing or non-numeric cells.
const Placeholder = "N/A"

// EmptyMessage is returned when there are no rows to render.
const EmptyMessage = "Không có dữ liệu"

// Style selects column handling and row truncation behavior.
type Style string

const (
	// StyleCompact reorders columns by priority and keeps trailing rows
	// when truncating.
	StyleCompact Style = "compact"
	// StyleHeadTail keeps the original columns and, when truncating,
	// concatenates the leading half with the trailing remainder.
	StyleHeadTail Style = "head_tail"
)

// Render produces a fixed-width text table from the row set. maxRows of 0
// disables truncation.
func Render(rs market.RowSet, maxRows int, style Style) string {
	if rs.Empty() {
		return EmptyMessage
	}

	columns := rs.Columns
	if style == StyleCompact {
		columns = compactColumns(rs.Columns)
	}

	records := truncateRows(rs.Records, maxRows, style)

	// Format every cell up front so widths cover the whole column.
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, columns)
	for _, record := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = FormatCell(record[col], Classify(col))
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(columns))
	for _, row := range rows {
		for i, cell := range row {
			if w := len([]rune(cell)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var lines []string
	for rowIdx, row := range rows {
		parts := make([]string, len(row))
		for i, cell := range row {
			if hasDigit(cell) {
				parts[i] = padLeft(cell, widths[i])
			} else {
				parts[i] = padRight(cell, widths[i])
			}
		}
		lines = append(lines, strings.Join(parts, "  "))

		if rowIdx == 0 {
			separators := make([]string, len(widths))
			for i, w := range widths {
				separators[i] = strings.Repeat("-", w)
			}
			lines = append(lines, strings.Join(separators, "  "))
		}
	}

	return strings.Join(lines, "\n")
}

// compactColumns selects and orders columns by priority: symbol, the first
// date column, OHLC (or a lone close price), the first volume column, then
// indicator columns in their original relative order. Falls back to the full
// set when fewer than two columns survive.
func compactColumns(columns []string) []string {
	var priority []string

	for _, col := range columns {
		if col == "symbol" {
			priority = append(priority, col)
			break
		}
	}

	for _, col := range columns {
		if Classify(col) == CategoryDate {
			priority = append(priority, col)
			break
		}
	}

	hasOHLC := true
	for _, part := range []string{"open", "high", "low", "close"} {
		if !anyColumnContains(columns, part) {
			hasOHLC = false
			break
		}
	}

	if hasOHLC {
		for _, part := range []string{"open", "high", "low", "close"} {
			for _, col := range columns {
				if strings.Contains(strings.ToLower(col), part) {
					priority = append(priority, col)
					break
				}
			}
		}
	} else {
		for _, col := range columns {
			lower := strings.ToLower(col)
			if strings.Contains(lower, "close") || strings.Contains(lower, "đóng") {
				priority = append(priority, col)
				break
			}
		}
	}

	for _, col := range columns {
		if Classify(col) == CategoryVolume {
			priority = append(priority, col)
			break
		}
	}

	for _, col := range columns {
		upper := strings.ToUpper(col)
		if strings.Contains(upper, "SMA") || strings.Contains(upper, "RSI") || strings.Contains(upper, "MACD") {
			priority = append(priority, col)
		}
	}

	if len(priority) <= 1 {
		return columns
	}
	return priority
}

func anyColumnContains(columns []string, part string) bool {
	for _, col := range columns {
		if strings.Contains(strings.ToLower(col), part) {
			return true
		}
	}
	return false
}

// truncateRows limits records to maxRows. Compact style keeps the tail;
// head_tail keeps the first maxRows/2 and the trailing remainder.
func truncateRows(records []map[string]interface{}, maxRows int, style Style) []map[string]interface{} {
	if maxRows <= 0 || len(records) <= maxRows {
		return records
	}
	if style == StyleHeadTail {
		headCount := maxRows / 2
		tailCount := maxRows - headCount
		out := make([]map[string]interface{}, 0, maxRows)
		out = append(out, records[:headCount]...)
		out = append(out, records[len(records)-tailCount:]...)
		return out
	}
	return records[len(records)-maxRows:]
}

// FormatCell renders one value according to its column category. Prices are
// converted to full VND (raw values are in thousands). Volumes above a
// million compact to M/B suffixes. Near-integers render without decimals.
func FormatCell(value interface{}, category Category) string {
	if value == nil {
		return Placeholder
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return Placeholder
		}
		return v
	case time.Time:
		return v.Format(timerange.DateFormat)
	}

	f, ok := toFloat(value)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Placeholder
	}

	if category == CategoryPrice {
		f *= 1000
	}
	if category == CategoryVolume && math.Abs(f) >= 1e6 {
		if math.Abs(f) >= 1e9 {
			return fmt.Sprintf("%.1fB", f/1e9)
		}
		return fmt.Sprintf("%.1fM", f/1e6)
	}

	if math.Abs(f-math.Round(f)) < 1e-4 {
		return groupThousands(fmt.Sprintf("%d", int64(math.Round(f))))
	}
	return groupThousands(fmt.Sprintf("%.2f", f))
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// groupThousands inserts comma separators into the integer part of a
// formatted number.
func groupThousands(s string) string {
	intPart := s
	rest := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, rest = s[:idx], s[idx:]
	}

	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	n := len(intPart)
	if n > 3 {
		var b strings.Builder
		lead := n % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < n; i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	if negative {
		intPart = "-" + intPart
	}
	return intPart + rest
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func padLeft(s string, width int) string {
	if gap := width - len([]rune(s)); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

func padRight(s string, width int) string {
	if gap := width - len([]rune(s)); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
