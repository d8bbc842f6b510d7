// Package cart holds the client-side shopping cart and the order snapshot
// taken from it at checkout.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/takeout/client/internal/domain/shared/valueobject"
)

// Item is a line in the cart. ID matches the remote commodity id.
type Item struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef"`
}

// Subtotal returns UnitPrice * Quantity
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SubtotalMoney returns the subtotal as a Money in CNY
func (i Item) SubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyCNY(i.UnitPrice).MultiplyByInt(int64(i.Quantity))
}

func copyItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func sumPrice(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func sumMoney(items []Item) valueobject.Money {
	total := valueobject.NewMoneyCNY(decimal.Zero)
	for _, item := range items {
		total = total.Add(item.SubtotalMoney())
	}
	return total
}

func sumQuantity(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
