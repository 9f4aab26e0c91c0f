package i18n

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for listing prices when none is configured.
const DefaultCurrency = "INR"

// currencySymbols maps ISO 4217 currency codes to their display symbol.
var currencySymbols = map[string]struct {
	symbol string
	prefix bool // true = "₹12,500", false = "12,500 AED"
}{
	"USD": {"$", true},
	"EUR": {"€", true},
	"GBP": {"£", true},
	"INR": {"₹", true},
	"AED": {"AED", false},
	"SGD": {"S$", true},
}

// FormatAmount renders a whole-unit amount with thousands separators and the
// currency symbol. Examples:
//
//	FormatAmount(8500000, "INR")    → "₹8,500,000"
//	FormatAmount(1234.5, "USD")     → "$1,235"
//	FormatAmount(-1500, "AED")      → "-1,500 AED"
//	FormatAmount(150, "XYZ")        → "150 XYZ"
func FormatAmount(amount float64, currencyCode string) string {
	d := decimal.NewFromFloat(amount).Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	grouped := sign + groupThousands(d.String())

	info, ok := currencySymbols[strings.ToUpper(currencyCode)]
	if !ok {
		return grouped + " " + currencyCode
	}
	if info.prefix {
		return sign + info.symbol + groupThousands(d.String())
	}
	return grouped + " " + info.symbol
}

// FormatPercent renders a ratio (0.254) as a percentage with one decimal
// ("25.4%").
func FormatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
