// internal/service/orders/orders.go
package orders

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"kalakriti-client/internal/domain/order"
	"kalakriti-client/internal/domain/payment"
	"kalakriti-client/internal/gateway"
)

// Service covers the order and payment endpoints. Payment processing is an
// opaque backend call; the client only submits the request and records the
// outcome.
type Service struct {
	api    *gateway.Client
	logger *zap.Logger
}

func NewService(api *gateway.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, logger: logger}
}

// Create submits a new order. The idempotency key guards against the
// refresh-and-retry path (or an impatient user) placing the order twice.
func (s *Service) Create(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	var created order.Order
	err := s.api.Post(ctx, "/api/orders", req, &created,
		gateway.WithHeader("Idempotency-Key", s.api.RequestID()))
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ByCustomer lists a customer's orders.
func (s *Service) ByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	endpoint := fmt.Sprintf("/api/orders/customer/%d", customerID)
	return gateway.GetList[order.Order](ctx, s.api, endpoint)
}

// Get fetches one order.
func (s *Service) Get(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := s.api.Get(ctx, fmt.Sprintf("/api/orders/%d", id), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns a page of all orders (admin dashboard).
func (s *Service) List(ctx context.Context, params order.ListParams) ([]order.Order, error) {
	query := url.Values{}
	if params.Page != nil {
		query.Set("page", strconv.Itoa(*params.Page))
	}
	if params.Size != nil {
		query.Set("size", strconv.Itoa(*params.Size))
	}

	endpoint := "/api/orders"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return gateway.GetList[order.Order](ctx, s.api, endpoint)
}

// UpdateStatus moves an order through its fulfilment states (admin
// dashboard).
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*order.Order, error) {
	var updated order.Order
	err := s.api.Put(ctx, fmt.Sprintf("/api/orders/%d/status", id), order.UpdateStatusRequest{Status: status}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Cancel deletes an order.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/api/orders/%d", id))
}

// ProcessPayment asks the payment service to charge an order.
func (s *Service) ProcessPayment(ctx context.Context, req payment.ProcessRequest) (*payment.Payment, error) {
	var processed payment.Payment
	if err := s.api.Post(ctx, "/api/payments/process", req, &processed); err != nil {
		return nil, err
	}
	return &processed, nil
}

// PaymentsForOrder lists the payment records of an order.
func (s *Service) PaymentsForOrder(ctx context.Context, orderID int64) ([]payment.Payment, error) {
	endpoint := fmt.Sprintf("/api/payments/order/%d", orderID)
	return gateway.GetList[payment.Payment](ctx, s.api, endpoint)
}
