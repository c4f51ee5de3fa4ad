// Package money parses and formats the currency strings carried by cart items.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrUnparsable is returned when a price string holds no usable number.
var ErrUnparsable = errors.New("unparsable price")

// Parse extracts an amount from strings such as "$1,299.99", "1 299,99 zł",
// "1.299,99 €" or "49". Everything except digits and separators is dropped.
// When both separators are present the last one is the decimal point; a lone
// separator followed by exactly three digits is treated as grouping.
func Parse(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	raw := strings.Trim(b.String(), ".,")
	if raw == "" || !strings.ContainsAny(raw, "0123456789") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsable, s)
	}

	lastDot := strings.LastIndexByte(raw, '.')
	lastComma := strings.LastIndexByte(raw, ',')
	var norm string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			norm = strings.ReplaceAll(raw, ".", "")
			norm = strings.Replace(norm, ",", ".", 1)
		} else {
			norm = strings.ReplaceAll(raw, ",", "")
		}
	case lastComma >= 0:
		norm = normalizeSingle(raw, ",")
	case lastDot >= 0:
		norm = normalizeSingle(raw, ".")
	default:
		norm = raw
	}

	d, err := decimal.NewFromString(norm)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsable, s)
	}
	return d, nil
}

func normalizeSingle(raw, sep string) string {
	if strings.Count(raw, sep) > 1 {
		return strings.ReplaceAll(raw, sep, "")
	}
	idx := strings.Index(raw, sep)
	if len(raw)-idx-1 == 3 {
		return strings.Replace(raw, sep, "", 1)
	}
	return strings.Replace(raw, sep, ".", 1)
}

// Formatter renders amounts as currency strings for a locale.
type Formatter struct {
	Symbol      string
	SymbolAfter bool
	printer     *message.Printer
}

// NewFormatter builds a formatter for the BCP 47 locale tag. An unknown tag
// falls back to English grouping.
func NewFormatter(symbol string, symbolAfter bool, locale string) Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return Formatter{Symbol: symbol, SymbolAfter: symbolAfter, printer: message.NewPrinter(tag)}
}

// Format rounds to cents and applies locale grouping plus the symbol.
func (f Formatter) Format(d decimal.Decimal) string {
	p := f.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	amount := p.Sprintf("%.2f", d.Round(2).InexactFloat64())
	switch {
	case f.Symbol == "":
		return amount
	case f.SymbolAfter:
		return amount + " " + f.Symbol
	default:
		return f.Symbol + amount
	}
}

// Cents rounds d to two places and returns it as a float for JSON snapshots.
func Cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
