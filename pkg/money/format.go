// Package money formats monetary amounts for display.
//
// Amounts are carried as decimal.Decimal at full precision everywhere else
// in the desk; rounding happens here and nowhere earlier.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts in a locale's currency with zero fractional digits.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewFormatter creates a formatter for the given BCP 47 locale and ISO 4217 currency code.
// Unknown values fall back to en-IN / INR.
func NewFormatter(locale, currencyCode string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Make("en-IN")
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.INR
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
	}
}

// Default is the en-IN rupee formatter used when nothing is configured.
var Default = NewFormatter("en-IN", "INR")

// Round rounds half away from zero to whole currency units.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Format renders d as e.g. "₹1,890".
func (f *Formatter) Format(d decimal.Decimal) string {
	whole := Round(d).IntPart()
	symbol := f.printer.Sprint(currency.Symbol(f.unit))
	if whole < 0 {
		return "-" + symbol + f.printer.Sprint(number.Decimal(-whole, number.MaxFractionDigits(0)))
	}
	return symbol + f.printer.Sprint(number.Decimal(whole, number.MaxFractionDigits(0)))
}

// Plain renders d with two fractional digits and no currency symbol, for
// fixed-width surfaces such as thermal receipts.
func (f *Formatter) Plain(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Percent renders a percentage without trailing zeros, e.g. "12%" or "2.5%".
func Percent(d decimal.Decimal) string {
	return d.String() + "%"
}
