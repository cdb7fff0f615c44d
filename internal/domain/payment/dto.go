// internal/domain/payment/dto.go
package payment

// MethodCreditCard is the only method the storefront currently submits.
const MethodCreditCard = "CREDIT_CARD"

// ProcessRequest asks the payment service to charge an order.
type ProcessRequest struct {
	OrderID    int64   `json:"orderId"`
	CustomerID int64   `json:"customerId"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method"`
}
