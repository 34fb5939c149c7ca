package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

// minor-unit exponents for currencies that differ from the usual two decimals
var currencyDecimals = map[Currency]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
	"JOD": 3,
}

func NormalizeCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

// Decimals returns the number of fraction digits of the currency's minimal unit.
func (c Currency) Decimals() int32 {
	if d, ok := currencyDecimals[c]; ok {
		return d
	}
	return 2
}

// MinimalUnit is the smallest representable step, e.g. 0.01 for USD and 1 for JPY.
func (c Currency) MinimalUnit() decimal.Decimal {
	return decimal.New(1, -c.Decimals())
}

type MoneyAmount struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// Ceil rounds the amount up to the currency's minimal unit.
func (m MoneyAmount) Ceil() MoneyAmount {
	return MoneyAmount{Amount: m.Amount.RoundCeil(m.Currency.Decimals()), Currency: m.Currency}
}

func (m MoneyAmount) String() string {
	return m.Amount.StringFixed(m.Currency.Decimals()) + " " + string(m.Currency)
}
