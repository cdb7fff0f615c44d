// internal/domain/payment/entity.go
package payment

// Status values reported by the payment service.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Payment mirrors the payment service's wire shape. The gateway behind
// /api/payments is opaque to the client; only the recorded outcome matters.
type Payment struct {
	ID                   int64   `json:"id"`
	OrderID              int64   `json:"orderId"`
	CustomerID           int64   `json:"customerId"`
	Amount               float64 `json:"amount"`
	Method               string  `json:"method"`
	Status               string  `json:"status"`
	TransactionReference string  `json:"transactionReference"`
	ProcessedAt          string  `json:"processedAt"`
}
