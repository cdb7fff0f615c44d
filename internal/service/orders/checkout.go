// internal/service/orders/checkout.go
package orders

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	cartdomain "kalakriti-client/internal/domain/cart"
	"kalakriti-client/internal/domain/order"
	"kalakriti-client/internal/domain/payment"
	"kalakriti-client/internal/domain/product"
	xerrors "kalakriti-client/internal/pkg/errors"
)

// CartSource is the slice of the cart store checkout consumes.
type CartSource interface {
	Items() []cartdomain.Line
	Clear() error
}

// ProductLookup fetches live product state; the catalog service satisfies it.
type ProductLookup interface {
	Product(ctx context.Context, id int64) (*product.Product, error)
}

// CheckoutResult reports the placed order and its payment record.
type CheckoutResult struct {
	Order   *order.Order
	Payment *payment.Payment
}

// Checkout places an order for the cart's contents. Cart snapshots can go
// stale (another buyer may exhaust stock between add-to-cart and checkout),
// so before anything is submitted every line is re-validated against live
// product state: quantity against current stock, totals against current
// price. The cart is cleared only after the payment succeeds.
func (s *Service) Checkout(ctx context.Context, cart CartSource, products ProductLookup, customerID int64, shippingAddress string) (*CheckoutResult, error) {
	lines := cart.Items()
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", xerrors.ErrInvalidInput)
	}
	if shippingAddress == "" {
		return nil, fmt.Errorf("%w: shipping address is required", xerrors.ErrInvalidInput)
	}

	items := make([]order.CreateItem, 0, len(lines))
	total := 0.0
	for _, line := range lines {
		live, err := products.Product(ctx, line.Product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-validate %q: %w", line.Product.Title, err)
		}
		if live.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: %q has %d left, cart wants %d",
				xerrors.ErrOutOfStock, live.Title, live.Stock, line.Quantity)
		}

		items = append(items, order.CreateItem{ProductID: live.ID, Quantity: line.Quantity})
		total += float64(line.Quantity) * live.Price
	}

	placed, err := s.Create(ctx, order.CreateRequest{
		CustomerID:      customerID,
		Items:           items,
		ShippingAddress: shippingAddress,
		TotalAmount:     total,
	})
	if err != nil {
		return nil, err
	}

	amount := placed.TotalAmount
	if amount == 0 {
		amount = total
	}

	paid, err := s.ProcessPayment(ctx, payment.ProcessRequest{
		OrderID:    placed.ID,
		CustomerID: customerID,
		Amount:     amount,
		Method:     payment.MethodCreditCard,
	})
	if err != nil {
		return nil, fmt.Errorf("order %d placed but payment failed: %w", placed.ID, err)
	}
	if paid.Status == payment.StatusFailed {
		return &CheckoutResult{Order: placed, Payment: paid},
			fmt.Errorf("%w: payment for order %d was declined", xerrors.ErrConflict, placed.ID)
	}

	if err := cart.Clear(); err != nil {
		// The order went through; a stale local cart is an annoyance, not a
		// checkout failure.
		s.logger.Warn("order placed but cart could not be cleared",
			zap.Int64("order_id", placed.ID), zap.Error(err))
	}

	return &CheckoutResult{Order: placed, Payment: paid}, nil
}
