// internal/domain/order/entity.go
package order

// Item is a single purchased line within an order.
type Item struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order mirrors the order service's wire shape.
type Order struct {
	ID              int64   `json:"id"`
	CustomerID      int64   `json:"customerId"`
	Status          string  `json:"status"`
	TotalAmount     float64 `json:"totalAmount"`
	ShippingAddress string  `json:"shippingAddress"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
	Items           []Item  `json:"items"`
}
