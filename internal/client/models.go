package client

import "github.com/shopspring/decimal"

// BusinessDTO is a restaurant as listed by the backend
type BusinessDTO struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Image           string          `json:"image"`
	DeliveryFees    decimal.Decimal `json:"deliveryFees"`
	MiniDeliveryFee decimal.Decimal `json:"miniDeliveryFee"`
	MonthSold       int             `json:"monthSold"`
	Score           float64         `json:"score"`
}

// CommodityDTO is one menu item of a business
type CommodityDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Img         string          `json:"img"`
	Price       decimal.Decimal `json:"price"`
	BusinessID  int64           `json:"businessId"`
	FoodTypeID  int64           `json:"foodTypeId"`
}

// FoodTypeDTO is a food category
type FoodTypeDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Img  string `json:"img"`
}

// LoginCredentials is the body of login and register calls
type LoginCredentials struct {
	Username string `json:"username" validate:"required,max=64,account"`
	Password string `json:"password" validate:"required,max=64,account"`
}

// OrderCreateDTO is the body of the save-order call.
// The quanity spelling is the backend's wire name.
type OrderCreateDTO struct {
	BusinessID int64             `json:"businessId"`
	OrderItems []OrderItemCreate `json:"orderItems"`
}

// OrderItemCreate is one line of a new order
type OrderItemCreate struct {
	CommodityID int64 `json:"commodityId"`
	Quanity     int   `json:"quanity"`
}

// OrderItemDTO is one line of a stored order
type OrderItemDTO struct {
	ID             int64           `json:"id"`
	Quanity        int             `json:"quanity"`
	CommodityPrice decimal.Decimal `json:"commodityPrice"`
	ProductName    string          `json:"productName"`
	Image          string          `json:"image"`
	CommodityID    int64           `json:"commodityId"`
}

// OrderTableDTO is a stored order with its business summary
type OrderTableDTO struct {
	OrderID              int64           `json:"orderId"`
	PayAmount            decimal.Decimal `json:"payAmount"`
	BusinessName         string          `json:"businessName"`
	BusinessDeliveryFees decimal.Decimal `json:"businessDeliveryFees"`
	OrderItemDTOs        []OrderItemDTO  `json:"orderItemDTOs"`
}

// UserDTO is the current user's profile
type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
