package report

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatTonnes formats a value with thousand separators and a fixed number
// of places. Example: FormatTonnes(8578.87, 1) returns "8,578.9".
func FormatTonnes(v decimal.Decimal, places int32) string {
	fixed := v.StringFixed(places)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	grouped := intPart
	if n, err := decimal.NewFromString(intPart); err == nil && n.IsInteger() {
		grouped = printer.Sprintf("%d", n.IntPart())
	}
	if hasFrac {
		return sign + grouped + "." + frac
	}
	return sign + grouped
}
