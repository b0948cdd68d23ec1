package catalog

import "github.com/shopspring/decimal"

// sizeMultipliers maps garment size labels to base-price multipliers. It is
// the last resolution rung before falling back to the plain base price and
// covers the letter sizes XS..XXL plus numeric waist sizes 28..42. Standard
// cuts price at 1.0; oversize cuts carry a surcharge.
var sizeMultipliers = map[string]decimal.Decimal{
	"xs": decimal.NewFromInt(1),
	"s":  decimal.NewFromInt(1),
	"m":  decimal.NewFromInt(1),
	"l":  decimal.NewFromInt(1),
	"xl": decimal.RequireFromString("1.10"),

	"xxl": decimal.RequireFromString("1.20"),

	"28": decimal.NewFromInt(1),
	"30": decimal.NewFromInt(1),
	"32": decimal.NewFromInt(1),
	"34": decimal.NewFromInt(1),
	"36": decimal.NewFromInt(1),
	"38": decimal.RequireFromString("1.05"),
	"40": decimal.RequireFromString("1.10"),
	"42": decimal.RequireFromString("1.15"),
}

// SizeMultiplier returns the static multiplier for a size label, matching
// case-insensitively.
func SizeMultiplier(label string) (decimal.Decimal, bool) {
	m, ok := sizeMultipliers[normalizeLabel(label)]
	return m, ok
}
