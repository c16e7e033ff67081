package fcm

import (
	"context"
	"fmt"
)

// Dispatcher delivers a payload to a topic or a single device. Two
// implementations exist: the Firebase Admin SDK client and a raw REST
// client authenticating via OAuth2 JWT-bearer exchange. Which one is used
// is a deployment choice, not a call-site choice.
type Dispatcher interface {
	Publish(ctx context.Context, topic string, payload Payload) error
	SendToDevice(ctx context.Context, token string, payload Payload) error
}

// DeliveryError means the provider rejected a send or the network call
// failed. Detail carries the provider's raw diagnostic when available.
type DeliveryError struct {
	Target string // topic name or device token
	Detail string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("delivery to %s failed: %s", e.Target, e.Detail)
	}
	return fmt.Sprintf("delivery to %s failed: %v", e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// DispatchResult records the outcome of one publish attempt so callers can
// observe partial failure instead of inferring it from logs.
type DispatchResult struct {
	Topic string `json:"topic"`
	Error string `json:"error,omitempty"`
}

// OK reports whether the attempt succeeded.
func (r DispatchResult) OK() bool {
	return r.Error == ""
}
