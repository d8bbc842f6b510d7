package devserver

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/takeout/client/internal/client"
)

var (
	errUserExists     = errors.New("username already exists")
	errBadCredentials = errors.New("invalid username or password")
	errOrderNotFound  = errors.New("order not found")
	errForeignOrder   = errors.New("order belongs to another user")
)

type user struct {
	id           int64
	username     string
	passwordHash []byte
}

// idemKey scopes an idempotency key to the user who sent it
type idemKey struct {
	userID int64
	key    string
}

type order struct {
	userID int64
	paid   bool
	table  client.OrderTableDTO
}

// accounts holds users and their orders
type accounts struct {
	mu         sync.RWMutex
	bcryptCost int
	users      map[string]*user
	orders     []*order
	idem       map[idemKey]int64
	nextUserID int64
	nextOrder  int64
}

func newAccounts(bcryptCost int) *accounts {
	return &accounts{
		bcryptCost: bcryptCost,
		users:      make(map[string]*user),
		idem:       make(map[idemKey]int64),
		nextUserID: 1,
		nextOrder:  1,
	}
}

func (a *accounts) register(username, password string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[username]; ok {
		return nil, errUserExists
	}
	u := &user{id: a.nextUserID, username: username, passwordHash: hash}
	a.nextUserID++
	a.users[username] = u
	return u, nil
}

func (a *accounts) authenticate(username, password string) (*user, error) {
	a.mu.RLock()
	u, ok := a.users[username]
	a.mu.RUnlock()
	if !ok {
		return nil, errBadCredentials
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return nil, errBadCredentials
	}
	return u, nil
}

func (a *accounts) byUsername(username string) (*user, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	u, ok := a.users[username]
	return u, ok
}

// saveOrder stores a new unpaid order. A user repeating an idempotency key
// gets the order created the first time.
func (a *accounts) saveOrder(userID int64, key string, table client.OrderTableDTO) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := idemKey{userID: userID, key: key}
	if key != "" {
		if id, ok := a.idem[k]; ok {
			return id
		}
	}
	table.OrderID = a.nextOrder
	a.nextOrder++
	a.orders = append(a.orders, &order{userID: userID, table: table})
	if key != "" {
		a.idem[k] = table.OrderID
	}
	return table.OrderID
}

func (a *accounts) pay(userID, orderID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range a.orders {
		if o.table.OrderID != orderID {
			continue
		}
		if o.userID != userID {
			return errForeignOrder
		}
		o.paid = true
		return nil
	}
	return errOrderNotFound
}

func (a *accounts) listOrders(userID int64, paid bool) []client.OrderTableDTO {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]client.OrderTableDTO, 0)
	for _, o := range a.orders {
		if o.userID == userID && o.paid == paid {
			out = append(out, o.table)
		}
	}
	return out
}

func orderTotal(items []client.OrderItemDTO, fees decimal.Decimal) decimal.Decimal {
	total := fees
	for _, item := range items {
		total = total.Add(item.CommodityPrice.Mul(decimal.NewFromInt(int64(item.Quanity))))
	}
	return total
}
