package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/takeout/client/internal/domain/shared/valueobject"
)

// Store is the authoritative in-memory cart for one user session.
// Operations never fail: invalid input is ignored and CreateOrder reports
// its precondition through the boolean result.
type Store struct {
	mu         sync.RWMutex
	items      []Item
	businessID *int64
	current    *OrderSnapshot
	now        func() time.Time
	newID      func() uuid.UUID
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used to stamp order snapshots
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides how snapshot IDs are generated
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore creates an empty cart
func NewStore(opts ...Option) *Store {
	s := &Store{
		items: make([]Item, 0),
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem increments the quantity of an existing line, keeping its stored
// name, price and image. Unknown IDs are appended with quantity 1.
// Items with a negative unit price are ignored.
func (s *Store) AddItem(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(item.ID); i >= 0 {
		s.items[i].Quantity++
		return
	}
	if item.UnitPrice.IsNegative() {
		return
	}
	item.Quantity = 1
	s.items = append(s.items, item)
}

// RemoveItem decrements the quantity of a line and drops it at zero.
// Unknown IDs are a no-op.
func (s *Store) RemoveItem(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	if s.items[i].Quantity > 1 {
		s.items[i].Quantity--
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
}

// SetBusinessID associates the cart with a business. Callers clear the
// cart themselves when switching businesses.
func (s *Store) SetBusinessID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businessID = &id
}

// BusinessID returns the associated business and whether one is set
func (s *Store) BusinessID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.businessID == nil {
		return 0, false
	}
	return *s.businessID, true
}

// ClearCart empties the items and unsets the business
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]Item, 0)
	s.businessID = nil
}

// Items returns a copy of the lines in display order
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItems(s.items)
}

// Item looks up a single line by commodity ID
func (s *Store) Item(id int64) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

// IsEmpty reports whether the cart has no lines
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

// TotalPrice returns the sum of UnitPrice * Quantity over all lines
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumPrice(s.items)
}

// Total returns the cart total as Money
func (s *Store) Total() valueobject.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumMoney(s.items)
}

// TotalQuantity returns the sum of quantities over all lines
func (s *Store) TotalQuantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumQuantity(s.items)
}

// CreateOrder snapshots the cart into the current order. It returns
// (nil, false) when the cart is empty or no business is set. Business id 0
// counts as unset.
func (s *Store) CreateOrder() (*OrderSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 || s.businessID == nil || *s.businessID == 0 {
		return nil, false
	}

	items := copyItems(s.items)
	s.current = &OrderSnapshot{
		ID:         s.newID(),
		BusinessID: *s.businessID,
		Items:      items,
		TotalPrice: sumPrice(items),
		CreatedAt:  s.now().UTC(),
	}
	return s.current.clone(), true
}

// CurrentOrder returns a copy of the retained snapshot, or nil
func (s *Store) CurrentOrder() *OrderSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// ClearCurrentOrder drops the retained snapshot
func (s *Store) ClearCurrentOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *Store) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
