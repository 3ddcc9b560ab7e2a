package gateway

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/payment-relay/internal/resilience"
)

func newTestREST(srv *httptest.Server, timeout time.Duration) REST {
	return REST{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   srv.URL,
		HTTP: resilience.HTTPClient{
			Client:  srv.Client(),
			Timeout: timeout,
		},
	}
}

func TestRESTCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		auth := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(auth, "Basic "))
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
		require.NoError(t, err)
		assert.Equal(t, "rzp_test_key:rzp_test_secret", string(decoded))

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(5000), req.Amount)
		assert.Equal(t, "INR", req.Currency)

		_ = json.NewEncoder(w).Encode(Order{
			ID: "order_1", Entity: "order", Amount: req.Amount, Currency: req.Currency, Status: StatusCreated,
		})
	}))
	defer srv.Close()

	order, err := newTestREST(srv, 2*time.Second).CreateOrder(t.Context(), CreateOrderRequest{Amount: 5000, Currency: "INR"})
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
	assert.Equal(t, StatusCreated, order.Status)
}

func TestRESTCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	c := REST{HTTP: resilience.HTTPClient{Client: http.DefaultClient}}
	_, err := c.CreateOrder(t.Context(), CreateOrderRequest{Amount: 0})
	require.Error(t, err)
}

func TestRESTFetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payments/pay_1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Payment{
			ID: "pay_1", Entity: "payment", OrderID: "order_1", Status: StatusAuthorized, Amount: 5000, Currency: "INR",
		})
	}))
	defer srv.Close()

	payment, err := newTestREST(srv, 2*time.Second).FetchPayment(t.Context(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthorized, payment.Status)
	assert.Equal(t, int64(5000), payment.Amount)
}

func TestRESTCapturePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments/pay_1/capture", r.URL.Path)

		var body struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(5000), body.Amount)
		assert.Equal(t, "INR", body.Currency)

		_ = json.NewEncoder(w).Encode(Payment{
			ID: "pay_1", Status: StatusCaptured, Captured: true, Amount: body.Amount, Currency: body.Currency,
		})
	}))
	defer srv.Close()

	payment, err := newTestREST(srv, 2*time.Second).CapturePayment(t.Context(), "pay_1", 5000, "INR")
	require.NoError(t, err)
	assert.Equal(t, StatusCaptured, payment.Status)
	assert.True(t, payment.Captured)
}

func TestRESTListPayments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("count"))
		assert.Equal(t, "5", r.URL.Query().Get("skip"))
		_ = json.NewEncoder(w).Encode(PaymentList{
			Entity: "collection", Count: 1, Items: []Payment{{ID: "pay_1", Status: StatusCaptured}},
		})
	}))
	defer srv.Close()

	list, err := newTestREST(srv, 2*time.Second).ListPayments(t.Context(), ListOptions{Count: 10, Skip: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "pay_1", list.Items[0].ID)
}

func TestRESTUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	}))
	defer srv.Close()

	_, err := newTestREST(srv, 2*time.Second).FetchPayment(t.Context(), "pay_1")
	require.ErrorIs(t, err, ErrCredentials)
	assert.Contains(t, err.Error(), "Authentication failed")
}

func TestRESTTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestREST(srv, 50*time.Millisecond).FetchPayment(t.Context(), "pay_1")
	require.ErrorIs(t, err, ErrTimeout)
}

func TestRESTAPIErrorPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Capture amount must equal authorized amount"}}`))
	}))
	defer srv.Close()

	_, err := newTestREST(srv, 2*time.Second).CapturePayment(t.Context(), "pay_1", 1, "INR")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", apiErr.Code)
	assert.Contains(t, apiErr.Description, "Capture amount")
}

func TestRESTDefaultHost(t *testing.T) {
	assert.Equal(t, "https://api.razorpay.com", REST{}.host())
	assert.Equal(t, "https://gw.example.com", REST{BaseURL: "https://gw.example.com/"}.host())
}
