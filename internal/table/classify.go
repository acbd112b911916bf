// Package table renders row sets as adaptive fixed-width text tables.
package table

import "strings"

// Category is the semantic type of a column, driving cell formatting and
// column ordering.
type Category int

const (
	CategoryNormal Category = iota
	CategoryDate
	CategoryVolume
	CategoryPrice
	CategoryPercent
)

func (c Category) String() string {
	switch c {
	case CategoryDate:
		return "date"
	case CategoryVolume:
		return "volume"
	case CategoryPrice:
		return "price"
	case CategoryPercent:
		return "percent"
	default:
		return "normal"
	}
}

// Bilingual keyword tables. Checked in order; first matching category wins.
// Indicator names (SMA, RSI) deliberately classify as price so derived
// columns share the price unit conversion.
var (
	dateKeywords    = []string{"time", "date", "ngày"}
	volumeKeywords  = []string{"volume", "khối lượng"}
	priceKeywords   = []string{"open", "high", "low", "close", "sma", "rsi", "giá", "price", "mở", "cao", "thấp", "đóng"}
	percentKeywords = []string{"percent", "%", "tỷ lệ"}
)

// Classify categorizes a column name by case-insensitive substring match.
// Pure and deterministic; unknown names are CategoryNormal.
func Classify(columnName string) Category {
	lower := strings.ToLower(columnName)

	if containsAny(lower, dateKeywords) {
		return CategoryDate
	}
	if containsAny(lower, volumeKeywords) {
		return CategoryVolume
	}
	if containsAny(lower, priceKeywords) {
		return CategoryPrice
	}
	if containsAny(lower, percentKeywords) {
		return CategoryPercent
	}
	return CategoryNormal
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
