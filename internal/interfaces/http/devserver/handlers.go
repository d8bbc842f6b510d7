package devserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takeout/client/internal/client"
	"github.com/takeout/client/internal/infrastructure/logger"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, client.Result[any]{Success: true, Data: data})
}

func okMessage(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, client.Result[any]{Success: true, Message: message, Data: data})
}

// reject reports a business failure: HTTP 200 with success=false
func reject(c *gin.Context, message string) {
	c.JSON(http.StatusOK, client.Result[any]{Success: false, Message: message})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, client.Result[any]{Success: false, Message: message})
}

func (s *Server) listBusinesses(c *gin.Context) {
	ok(c, s.catalog.Businesses)
}

func (s *Server) getBusiness(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid business id")
		return
	}
	b, found := s.catalog.Business(id)
	if !found {
		fail(c, http.StatusNotFound, "business not found")
		return
	}
	ok(c, b)
}

func (s *Server) listCommodities(c *gin.Context) {
	raw, present := c.GetQuery("id")
	if !present {
		ok(c, s.catalog.Commodities(nil))
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid business id")
		return
	}
	items := s.catalog.Commodities(&id)
	if items == nil {
		items = []client.CommodityDTO{}
	}
	ok(c, items)
}

func (s *Server) listFoodTypes(c *gin.Context) {
	ok(c, s.catalog.FoodTypes)
}

func (s *Server) bindCredentials(c *gin.Context) (client.LoginCredentials, bool) {
	var creds client.LoginCredentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		fail(c, http.StatusBadRequest, "malformed request body")
		return creds, false
	}
	if err := s.validate.Struct(creds); err != nil {
		reject(c, "username and password may only contain letters, digits and underscores")
		return creds, false
	}
	return creds, true
}

func (s *Server) login(c *gin.Context) {
	creds, valid := s.bindCredentials(c)
	if !valid {
		return
	}
	u, err := s.accounts.authenticate(creds.Username, creds.Password)
	if err != nil {
		reject(c, err.Error())
		return
	}
	token, err := s.jwt.GenerateToken(u.id, u.username)
	if err != nil {
		logger.GetGinLogger(c).Error("failed to sign token", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	okMessage(c, "login successful", token)
}

func (s *Server) register(c *gin.Context) {
	creds, valid := s.bindCredentials(c)
	if !valid {
		return
	}
	if _, err := s.accounts.register(creds.Username, creds.Password); err != nil {
		if errors.Is(err, errUserExists) {
			reject(c, err.Error())
			return
		}
		logger.GetGinLogger(c).Error("failed to register user", zap.Error(err))
		fail(c, http.StatusInternalServerError, "registration failed")
		return
	}
	okMessage(c, "registration successful", nil)
}

func (s *Server) saveOrder(c *gin.Context) {
	claims := claimsFrom(c)
	var req client.OrderCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "malformed request body")
		return
	}
	business, found := s.catalog.Business(req.BusinessID)
	if !found {
		reject(c, "business not found")
		return
	}
	if len(req.OrderItems) == 0 {
		reject(c, "order has no items")
		return
	}

	items := make([]client.OrderItemDTO, 0, len(req.OrderItems))
	for i, line := range req.OrderItems {
		commodity, found := s.catalog.Commodity(req.BusinessID, line.CommodityID)
		if !found {
			reject(c, "commodity "+strconv.FormatInt(line.CommodityID, 10)+" is not sold by this business")
			return
		}
		if line.Quanity <= 0 {
			reject(c, "quantity must be positive")
			return
		}
		items = append(items, client.OrderItemDTO{
			ID:             int64(i + 1),
			Quanity:        line.Quanity,
			CommodityPrice: commodity.Price,
			ProductName:    commodity.Name,
			Image:          commodity.Img,
			CommodityID:    commodity.ID,
		})
	}

	table := client.OrderTableDTO{
		PayAmount:            orderTotal(items, business.DeliveryFees),
		BusinessName:         business.Name,
		BusinessDeliveryFees: business.DeliveryFees,
		OrderItemDTOs:        items,
	}
	key := c.GetHeader("Idempotency-Key")
	id := s.accounts.saveOrder(claims.UserID, key, table)

	logger.GetGinLogger(c).Info("Order saved",
		zap.Int64("order_id", id),
		zap.String("username", claims.Username),
		zap.Int64("business_id", business.ID),
	)
	okMessage(c, "order saved", gin.H{"orderId": id})
}

func (s *Server) payOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid order id")
		return
	}
	switch err := s.accounts.pay(claimsFrom(c).UserID, id); {
	case errors.Is(err, errOrderNotFound), errors.Is(err, errForeignOrder):
		fail(c, http.StatusNotFound, errOrderNotFound.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, err.Error())
	default:
		okMessage(c, "order paid", nil)
	}
}

func (s *Server) paidOrders(c *gin.Context) {
	ok(c, s.accounts.listOrders(claimsFrom(c).UserID, true))
}

func (s *Server) unpaidOrders(c *gin.Context) {
	ok(c, s.accounts.listOrders(claimsFrom(c).UserID, false))
}

func (s *Server) userInfo(c *gin.Context) {
	claims := claimsFrom(c)
	u, found := s.accounts.byUsername(claims.Username)
	if !found {
		fail(c, http.StatusUnauthorized, "user no longer exists")
		return
	}
	ok(c, client.UserDTO{ID: u.id, Username: u.username})
}
