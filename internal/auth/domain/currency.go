package domain

import "strings"

// Currency is the account's display currency (ISO 4217).
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyPLN Currency = "PLN"
	CurrencyCZK Currency = "CZK"

	DefaultCurrency = CurrencyUSD
)

var supportedCurrencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyPLN, CurrencyCZK}

// ParseCurrency normalises s to upper case and checks it is supported.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, ok := range supportedCurrencies {
		if c == ok {
			return c, true
		}
	}
	return "", false
}

// SupportedCurrencies lists the accepted codes in display order.
func SupportedCurrencies() []Currency {
	return append([]Currency(nil), supportedCurrencies...)
}
