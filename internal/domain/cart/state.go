package cart

// State is the serializable form of a Store, used to carry a cart across
// process restarts.
type State struct {
	BusinessID   *int64         `json:"businessId,omitempty"`
	Items        []Item         `json:"items"`
	CurrentOrder *OrderSnapshot `json:"currentOrder,omitempty"`
}

// State captures the current cart contents
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Items:        copyItems(s.items),
		CurrentOrder: s.current.clone(),
	}
	if s.businessID != nil {
		id := *s.businessID
		st.BusinessID = &id
	}
	return st
}

// Restore replaces the cart contents with st. Lines with a quantity
// below one or a negative price are dropped; repeated IDs are merged so
// the loaded cart keeps the same invariants as one built through AddItem.
func (s *Store) Restore(st State) {
	items := make([]Item, 0, len(st.Items))
	seen := make(map[int64]int, len(st.Items))
	for _, item := range st.Items {
		if item.Quantity < 1 || item.UnitPrice.IsNegative() {
			continue
		}
		if i, ok := seen[item.ID]; ok {
			items[i].Quantity += item.Quantity
			continue
		}
		seen[item.ID] = len(items)
		items = append(items, item)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.businessID = nil
	if st.BusinessID != nil {
		id := *st.BusinessID
		s.businessID = &id
	}
	s.current = st.CurrentOrder.clone()
}
