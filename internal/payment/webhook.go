package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	// ErrSignature means the event could not be authenticated against the
	// shared webhook secret. No state change may follow it.
	ErrSignature = errors.New("webhook signature verification failed")
	// ErrPayload means the event authenticated but its contents are not
	// usable (malformed session object, unparseable order reference).
	ErrPayload = errors.New("malformed webhook payload")
)

// CompletedCheckout is a verified one-time payment completion extracted from
// a gateway event.
type CompletedCheckout struct {
	OrderID          uuid.UUID
	PaymentReference string
}

// VerifyEvent authenticates a raw webhook delivery and extracts the payment
// completion it carries, if any. A nil, nil return means the event is
// authentic but irrelevant here (wrong type, subscription mode, unpaid
// session) and must simply be acknowledged.
func VerifyEvent(payload []byte, signatureHeader, secret string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}

	// only one-time payments that actually settled are reconciled here
	if session.Mode != stripe.CheckoutSessionModePayment ||
		session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, nil
	}

	orderID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad client_reference_id %q", ErrPayload, session.ClientReferenceID)
	}

	reference := ""
	if session.PaymentIntent != nil {
		reference = session.PaymentIntent.ID
	}

	return &CompletedCheckout{
		OrderID:          orderID,
		PaymentReference: reference,
	}, nil
}
