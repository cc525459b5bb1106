package listing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatCurrency renders a price the way the listings display it, e.g. "FCFA 1 250 000".
func FormatCurrency(v float64) string {
	p := message.NewPrinter(language.French)
	return "FCFA " + p.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}
