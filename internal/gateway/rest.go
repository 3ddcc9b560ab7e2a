package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/payment-relay/internal/obs"
	"github.com/noah-isme/payment-relay/internal/resilience"
)

// REST talks to the gateway's JSON API using HTTP basic auth with the
// configured key pair. All calls go through the resilient wrapper so a
// misbehaving gateway trips the breaker instead of piling up requests.
type REST struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	HTTP      resilience.HTTPClient
}

// CreateOrder opens an order reservation with the gateway.
func (c REST) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if req.Amount <= 0 {
		return Order{}, errors.New("gateway: order amount must be positive")
	}
	if strings.TrimSpace(req.Currency) == "" {
		req.Currency = "INR"
	}
	var order Order
	if err := c.call(ctx, "create_order", http.MethodPost, "/v1/orders", req, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// FetchPayment reads the live state of a payment.
func (c REST) FetchPayment(ctx context.Context, paymentID string) (Payment, error) {
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return Payment{}, errors.New("gateway: payment id is required")
	}
	var payment Payment
	if err := c.call(ctx, "fetch_payment", http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, &payment); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// CapturePayment finalises an authorized payment, transferring the reserved
// funds. The gateway requires the capture amount and currency to match the
// payment.
func (c REST) CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (Payment, error) {
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return Payment{}, errors.New("gateway: payment id is required")
	}
	body := map[string]any{"amount": amount, "currency": strings.TrimSpace(currency)}
	var payment Payment
	if err := c.call(ctx, "capture_payment", http.MethodPost, "/v1/payments/"+url.PathEscape(id)+"/capture", body, &payment); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// ListPayments queries the gateway's payment history.
func (c REST) ListPayments(ctx context.Context, opts ListOptions) (PaymentList, error) {
	query := url.Values{}
	if opts.Count > 0 {
		query.Set("count", strconv.Itoa(opts.Count))
	}
	if opts.Skip > 0 {
		query.Set("skip", strconv.Itoa(opts.Skip))
	}
	path := "/v1/payments"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var list PaymentList
	if err := c.call(ctx, "list_payments", http.MethodGet, path, nil, &list); err != nil {
		return PaymentList{}, err
	}
	return list, nil
}

func (c REST) call(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	defer func() {
		if obs.GatewayCallDuration != nil {
			obs.GatewayCallDuration.WithLabelValues(op).Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host()+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(strings.TrimSpace(c.KeyID), strings.TrimSpace(c.KeySecret))

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return wrapTransportErr(err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return wrapTransportErr(err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrCredentials, errorDescription(payload))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

func (c REST) host() string {
	host := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if host == "" {
		host = "https://api.razorpay.com"
	}
	return host
}

// decodeAPIError extracts the gateway's error envelope. Messages and codes
// are passed through verbatim so the caller sees what the gateway said.
func decodeAPIError(status int, payload []byte) error {
	var envelope struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	_ = json.Unmarshal(payload, &envelope)
	return &APIError{
		StatusCode:  status,
		Code:        envelope.Error.Code,
		Description: envelope.Error.Description,
	}
}

func errorDescription(payload []byte) string {
	var envelope struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Error.Description == "" {
		return "authentication failed"
	}
	return envelope.Error.Description
}
