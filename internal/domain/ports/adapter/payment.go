package adapter

import "context"

// PaymentOrder is the provider's answer to a successful order creation.
type PaymentOrder struct {
	ProviderID string
	PayURL     string
}

// PaymentGateway encapsulates the provider wire protocol: signed
// outbound order creation and inbound notification verification.
type PaymentGateway interface {
	Name() string

	// CreateOrder requests a payment order from the provider. A non-2xx
	// response or a failure envelope is a hard error; the adapter never
	// retries on its own.
	CreateOrder(ctx context.Context, orderNo string, amount int64, payType, subject string) (*PaymentOrder, error)

	// VerifyNotification checks the signature and merchant identity of
	// an inbound notification. Missing fields, mismatches, and malformed
	// input all yield false (fail-closed).
	VerifyNotification(fields map[string]string) bool

	// NotificationSucceeded decides whether a verified notification
	// reports a successful payment. Absence of every known success
	// indicator is non-success, not failure.
	NotificationSucceeded(fields map[string]string) bool
}
