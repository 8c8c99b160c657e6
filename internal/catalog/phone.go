// Package catalog holds the phone records that recommendations are drawn
// from and the import path that loads them.
package catalog

import (
	"strings"
	"unicode"
)

// Phone is one catalog entry. Every field except Model may be empty but is
// never absent.
type Phone struct {
	ID           int64  `json:"id"`
	Model        string `json:"model"`
	Brand        string `json:"brand"`
	MarketName   string `json:"market_name"`
	Memory       string `json:"memory"`
	FrontCamera  string `json:"front_camera"`
	RearCamera   string `json:"rear_camera"`
	Resolution   string `json:"resolution"`
	ScreenSize   string `json:"screen_size"`
	SellingPoint string `json:"selling_point"`
	Price        string `json:"price"`
	ImageKey     string `json:"image_key"`
}

// ImageKey derives the asset key for a model name. The key depends only on
// the name, so it survives reimports that reorder rows.
//
//	ImageKey("Redmi Note 13 Pro+") == "redmi-note-13-pro"
func ImageKey(model string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(model)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
