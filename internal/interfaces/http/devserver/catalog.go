// Package devserver is an in-memory implementation of the takeout backend
// used for local development and end-to-end tests of the client.
package devserver

import (
	"fmt"
	"sort"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/takeout/client/internal/client"
)

// Catalog is the read-only restaurant data served by the dev backend
type Catalog struct {
	Businesses  []client.BusinessDTO
	FoodTypes   []client.FoodTypeDTO
	commodities map[int64][]client.CommodityDTO
}

var foodTypeNames = []string{"Rice", "Noodles", "Snacks", "Desserts", "Drinks"}

// NewCatalog generates a deterministic catalog from seed
func NewCatalog(seed uint64, businesses, itemsPerBusiness int) *Catalog {
	f := gofakeit.New(seed)
	c := &Catalog{commodities: make(map[int64][]client.CommodityDTO)}

	for i, name := range foodTypeNames {
		c.FoodTypes = append(c.FoodTypes, client.FoodTypeDTO{
			ID:   int64(i + 1),
			Name: name,
			Img:  fmt.Sprintf("/img/foodtype/%d.png", i+1),
		})
	}

	var nextItem int64 = 1
	for b := 1; b <= businesses; b++ {
		id := int64(b)
		c.Businesses = append(c.Businesses, client.BusinessDTO{
			ID:              id,
			Name:            f.Company(),
			Description:     f.Dinner(),
			Image:           fmt.Sprintf("/img/business/%d.png", id),
			DeliveryFees:    price(f, 0, 8),
			MiniDeliveryFee: price(f, 10, 30),
			MonthSold:       f.Number(0, 5000),
			Score:           float64(f.Number(30, 50)) / 10,
		})
		for i := 0; i < itemsPerBusiness; i++ {
			c.commodities[id] = append(c.commodities[id], client.CommodityDTO{
				ID:          nextItem,
				Name:        dishName(f, i),
				Description: f.Lunch(),
				Img:         fmt.Sprintf("/img/commodity/%d.png", nextItem),
				Price:       price(f, 5, 60),
				BusinessID:  id,
				FoodTypeID:  int64(f.Number(1, len(foodTypeNames))),
			})
			nextItem++
		}
	}
	return c
}

func price(f *gofakeit.Faker, lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(f.Price(lo, hi)).Round(2)
}

func dishName(f *gofakeit.Faker, i int) string {
	switch i % 3 {
	case 0:
		return f.Dinner()
	case 1:
		return f.Breakfast()
	default:
		return f.Dessert()
	}
}

// Business looks up a business by id
func (c *Catalog) Business(id int64) (client.BusinessDTO, bool) {
	for _, b := range c.Businesses {
		if b.ID == id {
			return b, true
		}
	}
	return client.BusinessDTO{}, false
}

// Commodities returns the menu of one business, or of every business when
// businessID is nil
func (c *Catalog) Commodities(businessID *int64) []client.CommodityDTO {
	if businessID != nil {
		return c.commodities[*businessID]
	}
	ids := make([]int64, 0, len(c.commodities))
	for id := range c.commodities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var all []client.CommodityDTO
	for _, id := range ids {
		all = append(all, c.commodities[id]...)
	}
	return all
}

// Commodity finds a menu item of a business
func (c *Catalog) Commodity(businessID, id int64) (client.CommodityDTO, bool) {
	for _, item := range c.commodities[businessID] {
		if item.ID == id {
			return item, true
		}
	}
	return client.CommodityDTO{}, false
}
