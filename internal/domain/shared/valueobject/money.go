package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

// CNY is the currency menu prices are quoted in
const CNY Currency = "CNY"

// currencySymbols maps currencies to their display symbol
var currencySymbols = map[Currency]string{
	CNY: "¥",
}

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoneyCNY creates Money in CNY (Chinese Yuan)
func NewMoneyCNY(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: CNY}
}

// Add returns a new Money with the sum of both amounts in m's currency.
// NewMoneyCNY is the only constructor, so operands always share a currency.
func (m Money) Add(other Money) Money {
	return Money{
		amount:   m.amount.Add(other.amount),
		currency: m.currency,
	}
}

// MultiplyByInt returns a new Money multiplied by an integer
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{
		amount:   m.amount.Mul(decimal.NewFromInt(factor)),
		currency: m.currency,
	}
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// Display renders the amount with the currency symbol, e.g. "¥40.00".
// Unknown currencies fall back to String.
func (m Money) Display() string {
	symbol, ok := currencySymbols[m.currency]
	if !ok {
		return m.String()
	}
	if m.amount.IsNegative() {
		return "-" + symbol + m.amount.Abs().StringFixed(2)
	}
	return symbol + m.amount.StringFixed(2)
}
