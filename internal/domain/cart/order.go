package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/takeout/client/internal/domain/shared/valueobject"
)

// OrderSnapshot is the immutable record of the cart taken at checkout.
// Items is a copy; later cart mutations never reach it.
type OrderSnapshot struct {
	ID         uuid.UUID       `json:"id"`
	BusinessID int64           `json:"businessId"`
	Items      []Item          `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// TotalQuantity returns the number of units in the snapshot
func (o *OrderSnapshot) TotalQuantity() int {
	return sumQuantity(o.Items)
}

// Total returns TotalPrice as Money in the default currency
func (o *OrderSnapshot) Total() valueobject.Money {
	return valueobject.NewMoneyCNY(o.TotalPrice)
}

func (o *OrderSnapshot) clone() *OrderSnapshot {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = copyItems(o.Items)
	return &c
}
