package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrCredentials reports that the gateway rejected the configured key pair.
var ErrCredentials = errors.New("gateway: credentials rejected")

// ErrTimeout reports that a gateway call exceeded its deadline.
var ErrTimeout = errors.New("gateway: upstream timed out")

// APIError is a non-2xx response from the gateway with its decoded error body.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("gateway: %s (%s)", e.Description, e.Code)
	}
	return fmt.Sprintf("gateway: unexpected status %d", e.StatusCode)
}

// wrapTransportErr maps transport failures onto the sentinel errors the
// handlers translate into status codes.
func wrapTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
