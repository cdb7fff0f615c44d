// internal/domain/order/dto.go
package order

// CreateItem is one requested line in a new order.
type CreateItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateRequest is the checkout payload for the order service.
type CreateRequest struct {
	CustomerID      int64        `json:"customerId"`
	Items           []CreateItem `json:"items"`
	ShippingAddress string       `json:"shippingAddress"`
	TotalAmount     float64      `json:"totalAmount"`
}

// UpdateStatusRequest moves an order through its fulfilment states.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListParams selects a page of orders.
type ListParams struct {
	Page *int
	Size *int
}
