package booking

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PriceBuffer is the headroom allowed over the quoted total when booking.
const PriceBuffer = 1.10

func TotalPrice(priceRetail float64, nights int) float64 {
	return priceRetail * float64(nights)
}

func PriceRetailMax(priceRetail float64, nights int) float64 {
	return TotalPrice(priceRetail, nights) * PriceBuffer
}

var currencySymbols = map[string]string{
	"JPY": "¥",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"AUD": "A$",
	"NZD": "NZ$",
}

var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
}

// FormatPrice renders an amount with the currency symbol and digit grouping,
// e.g. "¥165,000" or "$1,234.50".
func FormatPrice(currency string, amount float64) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	decimals := 2
	if zeroDecimalCurrencies[code] {
		decimals = 0
	}

	printer := message.NewPrinter(language.English)
	number := printer.Sprintf(fmt.Sprintf("%%.%df", decimals), amount)

	if symbol, ok := currencySymbols[code]; ok {
		return symbol + number
	}
	if code == "" {
		return number
	}
	return code + " " + number
}
