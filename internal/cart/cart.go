// Package cart is the client-local authoritative record of intended
// purchases prior to checkout. It never talks to the network: stock ceilings
// are enforced against the product snapshot at mutation time, and checkout
// re-validates against live stock before submitting an order.
package cart

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	cartdomain "kalakriti-client/internal/domain/cart"
	"kalakriti-client/internal/domain/product"
	xerrors "kalakriti-client/internal/pkg/errors"
)

// Persistence is the slice of the state store the cart needs.
type Persistence interface {
	SaveCart(lines []cartdomain.Line) error
	LoadCart() ([]cartdomain.Line, error)
	ClearCart() error
}

// Store holds the cart lines in memory and re-persists the full collection
// on every mutation, so the in-memory state and the snapshot are in step
// before a mutating call returns.
type Store struct {
	mu      sync.Mutex
	lines   []cartdomain.Line
	persist Persistence
	logger  *zap.Logger
}

// NewStore restores the persisted cart (corrupted entries already dropped by
// the defensive decoder) and returns a ready store.
func NewStore(p Persistence, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{persist: p, logger: logger}
	lines, err := p.LoadCart()
	if err != nil {
		logger.Warn("failed to restore persisted cart, starting empty", zap.Error(err))
		lines = nil
	}
	s.lines = lines
	return s
}

// AddItem merges quantity into an existing line for the product or inserts a
// new one, clamped to [1, stock]. At most one line ever exists per product id.
func (s *Store) AddItem(p product.Product, quantity int) error {
	if p.ID == 0 {
		return fmt.Errorf("%w: product id is required", xerrors.ErrInvalidInput)
	}
	if p.Stock < 1 {
		return fmt.Errorf("%w: %q has no stock", xerrors.ErrOutOfStock, p.Title)
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID == p.ID {
			s.lines[i].Quantity = clamp(s.lines[i].Quantity+quantity, p.Stock)
			// Refresh the snapshot: the caller's copy is newer than whatever
			// the line was created from.
			s.lines[i].Product = p
			return s.save()
		}
	}

	s.lines = append(s.lines, cartdomain.Line{Product: p, Quantity: clamp(quantity, p.Stock)})
	return s.save()
}

// RemoveItem deletes the line for the product id; absent is a no-op, not an
// error.
func (s *Store) RemoveItem(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return s.save()
		}
	}
	return nil
}

// UpdateQuantity sets the line's quantity clamped to [1, stock]. A quantity
// of zero or below behaves exactly like RemoveItem.
func (s *Store) UpdateQuantity(productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			// A restored line can carry a zero-stock snapshot; clamping to
			// [1, 0] would leave the quantity above stock.
			if s.lines[i].Product.Stock < 1 {
				return fmt.Errorf("%w: %q has no stock", xerrors.ErrOutOfStock, s.lines[i].Product.Title)
			}
			s.lines[i].Quantity = clamp(quantity, s.lines[i].Product.Stock)
			return s.save()
		}
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	return xerrors.Wrap(s.persist.ClearCart(), "failed to clear persisted cart")
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []cartdomain.Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]cartdomain.Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// TotalItems is the summed quantity across lines, recomputed per read.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice is the summed quantity×price across lines, recomputed per read.
func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, line := range s.lines {
		total += float64(line.Quantity) * line.Product.Price
	}
	return total
}

// save persists the full collection. Caller holds s.mu.
func (s *Store) save() error {
	return xerrors.Wrap(s.persist.SaveCart(s.lines), "failed to persist cart")
}

func clamp(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}
