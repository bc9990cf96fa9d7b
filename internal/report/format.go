package report

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Shares formats a share count with thousands separators
func Shares(n int64) string {
	return printer.Sprintf("%v", number.Decimal(n))
}

// Rupees formats an amount as ₹ with grouping and two decimals. The
// whole and fractional parts are taken from the decimal directly so no
// paise are lost to float rounding.
func Rupees(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	dot := strings.IndexByte(fixed, '.')
	whole := d.Round(2).Truncate(0).IntPart()
	return sign + "₹" + Shares(whole) + fixed[dot:]
}
