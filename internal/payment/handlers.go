package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/payment-relay/internal/common"
	"github.com/noah-isme/payment-relay/internal/gateway"
)

const (
	defaultListCount = 10
	maxListCount     = 100
)

// Handler exposes the HTTP surface of the relay: order creation, signed
// callback verification with capture, and payment history reads.
type Handler struct {
	Svc      *Service
	Gateway  gateway.Client
	Validate *validator.Validate
	Logger   zerolog.Logger
}

type createOrderReq struct {
	Amount   int64             `json:"amount" validate:"required,gt=0"`
	Currency string            `json:"currency" validate:"omitempty,len=3"`
	Receipt  string            `json:"receipt" validate:"omitempty,max=40"`
	Notes    map[string]string `json:"notes"`
}

type verifyReq struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
}

type verifyResp struct {
	Verified       bool             `json:"verified"`
	Captured       bool             `json:"captured"`
	OrderID        string           `json:"order_id"`
	PaymentID      string           `json:"payment_id"`
	PaymentDetails *gateway.Payment `json:"payment_details,omitempty"`
}

// CreateOrder opens an order with the gateway and passes the result through.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Gateway == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "payment handler unavailable", nil)
		return
	}
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid body", nil)
		return
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}
	if details, ok := h.validate(req); !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "missing or invalid fields", details)
		return
	}
	order, err := h.Gateway.CreateOrder(r.Context(), gateway.CreateOrderRequest{
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		common.RenderError(w, upstreamError("create order", err))
		return
	}
	common.JSON(w, http.StatusOK, order)
}

// VerifyPayment validates the signed callback and drives capture. The three
// outcomes stay distinguishable in the response: not verified, verified but
// capture failed, verified and captured.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "payment handler unavailable", nil)
		return
	}
	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid body", nil)
		return
	}
	// Reject incomplete requests before any gateway call is made.
	if details, ok := h.validate(req); !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "missing or invalid fields", details)
		return
	}

	result, err := h.Svc.VerifyAndCapture(r.Context(), VerifyCaptureRequest{
		OrderID:   strings.TrimSpace(req.OrderID),
		PaymentID: strings.TrimSpace(req.PaymentID),
		Signature: req.Signature,
		Amount:    req.Amount,
	})
	if err != nil {
		h.renderVerifyError(w, result, err)
		return
	}
	common.JSON(w, http.StatusOK, verifyResp{
		Verified:       result.Verified,
		Captured:       result.Captured,
		OrderID:        result.OrderID,
		PaymentID:      result.PaymentID,
		PaymentDetails: result.Payment,
	})
}

// ListPayments passes a bounded history query through to the gateway.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Gateway == nil {
		h.renderReadError(w, errors.New("payment handler unavailable"))
		return
	}
	opts := gateway.ListOptions{Count: defaultListCount}
	if raw := strings.TrimSpace(r.URL.Query().Get("count")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts.Count = parsed
		}
	}
	if opts.Count > maxListCount {
		opts.Count = maxListCount
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("skip")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts.Skip = parsed
		}
	}
	list, err := h.Gateway.ListPayments(r.Context(), opts)
	if err != nil {
		h.renderReadError(w, upstreamError("list payments", err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"count": list.Count,
			"items": list.Items,
		},
	})
}

// GetPayment fetches a single payment's live state from the gateway.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Gateway == nil {
		h.renderReadError(w, errors.New("payment handler unavailable"))
		return
	}
	paymentID := strings.TrimSpace(chi.URLParam(r, "paymentID"))
	if paymentID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "paymentID is required", nil)
		return
	}
	payment, err := h.Gateway.FetchPayment(r.Context(), paymentID)
	if err != nil {
		h.renderReadError(w, upstreamError("fetch payment", err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"payment": payment,
	})
}

func (h *Handler) validate(v any) (any, bool) {
	if h.Validate == nil {
		return nil, true
	}
	err := h.Validate.Struct(v)
	if err == nil {
		return nil, true
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field())
		}
		return map[string]any{"fields": fields}, false
	}
	return nil, false
}

// renderVerifyError keeps the verified/captured flags visible on failure so
// "verified but capture failed" stays distinct from "not verified".
func (h *Handler) renderVerifyError(w http.ResponseWriter, result CaptureResult, err error) {
	status := http.StatusInternalServerError
	body := common.ErrorBody{Code: common.CodeInternal, Message: err.Error()}
	var app *common.AppError
	if errors.As(err, &app) {
		status = app.HTTPStatus
		body = common.ErrorBody{Code: app.Code, Message: app.Message, Details: app.Details}
	}
	common.JSON(w, status, map[string]any{
		"verified":   result.Verified,
		"captured":   result.Captured,
		"order_id":   result.OrderID,
		"payment_id": result.PaymentID,
		"error":      body,
	})
}

func (h *Handler) renderReadError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := common.ErrorBody{Code: common.CodeInternal, Message: err.Error()}
	var app *common.AppError
	if errors.As(err, &app) {
		status = app.HTTPStatus
		body = common.ErrorBody{Code: app.Code, Message: app.Message, Details: app.Details}
	}
	common.JSON(w, status, map[string]any{
		"success": false,
		"error":   body,
	})
}
