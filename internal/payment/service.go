package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/payment-relay/internal/common"
	"github.com/noah-isme/payment-relay/internal/gateway"
	"github.com/noah-isme/payment-relay/internal/lock"
	"github.com/noah-isme/payment-relay/internal/obs"
	"github.com/noah-isme/payment-relay/internal/resilience"
)

// VerifyCaptureRequest is a signed payment callback echoed by the client.
type VerifyCaptureRequest struct {
	OrderID   string
	PaymentID string
	Signature string
	Amount    int64
}

// CaptureResult is the unified outcome returned to the caller. Both flags are
// independently meaningful: verified-but-not-captured is a distinct outcome
// from not-verified.
type CaptureResult struct {
	Verified  bool
	Captured  bool
	OrderID   string
	PaymentID string
	Payment   *gateway.Payment
}

// Service drives a verified payment from authorized to captured. Capture side
// effects are never executed for an unverified pair, and a payment already in
// captured state is success without a second capture call (the gateway's
// capture is not assumed idempotent at this layer).
type Service struct {
	Gateway  gateway.Client
	Verifier Verifier
	Locks    lock.Keyed
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

// VerifyAndCapture validates the signature and, on success, runs the
// fetch-decide-capture sequence under a per-payment-ID lock so two racing
// requests for the same payment cannot interleave between the status check
// and the capture call.
func (s *Service) VerifyAndCapture(ctx context.Context, req VerifyCaptureRequest) (CaptureResult, error) {
	res := CaptureResult{OrderID: req.OrderID, PaymentID: req.PaymentID}
	if s == nil || s.Gateway == nil {
		return res, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.VerifyAndCapture")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.id", req.PaymentID),
		attribute.String("order.id", req.OrderID),
	)

	if !s.Verifier.Verify(req.OrderID, req.PaymentID, req.Signature) {
		countVerify("rejected")
		s.Logger.Warn().
			Str("order_id", req.OrderID).
			Str("payment_id", req.PaymentID).
			Msg("signature_rejected")
		return res, common.SignatureError()
	}
	res.Verified = true
	countVerify("verified")

	start := time.Now()
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.Bool("payment.captured", res.Captured),
			attribute.String("payment.capture.result", result),
			attribute.Float64("payment.capture.duration_ms", obs.DurationMillis(time.Since(start))),
		)
		countCapture(result)
	}()

	err := s.withPaymentLock(ctx, req.PaymentID, func(ctx context.Context) error {
		live, err := s.Gateway.FetchPayment(ctx, req.PaymentID)
		if err != nil {
			span.RecordError(err)
			return upstreamError("fetch payment", err)
		}

		switch live.Status {
		case gateway.StatusCaptured:
			// Desired end state already holds; do not reattempt capture.
			res.Captured = true
			res.Payment = &live
			result = "already_captured"
			return nil
		case gateway.StatusAuthorized:
			if req.Amount != live.Amount {
				result = "amount_mismatch"
				return common.NewAppError(
					common.CodeAmountMismatch,
					fmt.Sprintf("requested amount %d does not match payment amount %d", req.Amount, live.Amount),
					http.StatusBadRequest, nil,
				)
			}
			// The live payment's currency is the only authoritative source
			// for the capture call.
			captured, err := s.Gateway.CapturePayment(ctx, req.PaymentID, req.Amount, live.Currency)
			if err != nil {
				span.RecordError(err)
				return upstreamError("capture payment", err)
			}
			res.Captured = true
			res.Payment = &captured
			result = "captured"
			return nil
		default:
			result = "unexpected_state"
			return common.StateError(fmt.Sprintf("payment %s is in status %q and cannot be captured", req.PaymentID, live.Status))
		}
	})
	if err != nil {
		s.Logger.Warn().
			Err(err).
			Str("payment_id", req.PaymentID).
			Str("result", result).
			Msg("capture_failed")
		return res, err
	}
	s.Logger.Info().
		Str("payment_id", req.PaymentID).
		Str("order_id", req.OrderID).
		Str("result", result).
		Msg("payment_captured")
	return res, nil
}

func (s *Service) withPaymentLock(ctx context.Context, paymentID string, fn func(context.Context) error) error {
	locks := s.Locks
	if locks == nil {
		locks = &lock.Mutex{}
	}
	return locks.WithLock(ctx, "capture:"+paymentID, s.LockTTL, fn)
}

// upstreamError translates gateway failures into the error taxonomy:
// credential rejection, deadline expiry, and everything else are distinct.
func upstreamError(op string, err error) *common.AppError {
	switch {
	case errors.Is(err, gateway.ErrCredentials):
		return common.NewAppError(common.CodeUpstreamAuth, op+": gateway rejected credentials", http.StatusUnauthorized, err)
	case errors.Is(err, gateway.ErrTimeout):
		return common.NewAppError(common.CodeUpstreamTimeout, op+": gateway timed out", http.StatusGatewayTimeout, err)
	case errors.Is(err, resilience.ErrOpenCircuit):
		return common.NewAppError(common.CodeUpstreamError, op+": gateway temporarily unavailable", http.StatusServiceUnavailable, err)
	default:
		return common.NewAppError(common.CodeUpstreamError, op+": "+err.Error(), http.StatusInternalServerError, err)
	}
}

func countVerify(result string) {
	if obs.PaymentVerifyTotal != nil {
		obs.PaymentVerifyTotal.WithLabelValues(result).Inc()
	}
}

func countCapture(result string) {
	if obs.PaymentCaptureTotal != nil {
		obs.PaymentCaptureTotal.WithLabelValues(result).Inc()
	}
}
