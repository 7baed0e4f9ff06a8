package cart

// Store owns one cart value. All mutation goes through Dispatch; it is meant for a single
// writer and does no locking.
type Store struct {
	reducer *Reducer
	cart    Cart
}

func NewStore(reducer *Reducer, initial Cart) *Store {
	return &Store{reducer: reducer, cart: reducer.Normalize(initial)}
}

func (s *Store) Dispatch(a Action) Cart {
	s.cart = s.reducer.Reduce(s.cart, a)
	return s.Snapshot()
}

// Snapshot returns a copy that shares no line storage with the store.
func (s *Store) Snapshot() Cart {
	return s.cart.clone()
}
