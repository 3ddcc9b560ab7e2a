package gateway

import "context"

// Payment statuses as reported by the gateway. The gateway is the system of
// record; these values are read live and never cached or mutated locally.
const (
	StatusCreated    = "created"
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusRefunded   = "refunded"
	StatusFailed     = "failed"
)

// Order is a gateway-side reservation of an amount to be paid.
type Order struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt,omitempty"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes,omitempty"`
	CreatedAt int64             `json:"created_at"`
}

// Payment is the live state of a payment as held by the gateway.
type Payment struct {
	ID          string            `json:"id"`
	Entity      string            `json:"entity"`
	OrderID     string            `json:"order_id"`
	Status      string            `json:"status"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Method      string            `json:"method,omitempty"`
	Email       string            `json:"email,omitempty"`
	Contact     string            `json:"contact,omitempty"`
	Captured    bool              `json:"captured"`
	Description string            `json:"description,omitempty"`
	Notes       map[string]string `json:"notes,omitempty"`
	ErrorCode   string            `json:"error_code,omitempty"`
	CreatedAt   int64             `json:"created_at"`
}

// PaymentList is the gateway's collection envelope for payment queries.
type PaymentList struct {
	Entity string    `json:"entity"`
	Count  int       `json:"count"`
	Items  []Payment `json:"items"`
}

// CreateOrderRequest carries the fields accepted by the order creation call.
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// ListOptions bounds a payment listing query.
type ListOptions struct {
	Count int
	Skip  int
}

// Client abstracts the operations required from the payment gateway.
// Constructed explicitly and injected rather than held as ambient global
// state so orchestration code can run against test doubles.
type Client interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error)
	FetchPayment(ctx context.Context, paymentID string) (Payment, error)
	CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (Payment, error)
	ListPayments(ctx context.Context, opts ListOptions) (PaymentList, error)
}
