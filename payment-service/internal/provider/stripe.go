// Package provider talks to the external payment provider (Stripe).
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/eaglemart/platform/shared/errs"
)

// Event types the payment service reacts to.
const (
	EventIntentSucceeded = string(stripe.EventTypePaymentIntentSucceeded)
	EventIntentFailed    = string(stripe.EventTypePaymentIntentPaymentFailed)
)

// Intent is a payment intent created with the provider.
type Intent struct {
	ID           string
	ClientSecret string
}

// WebhookEvent is a verified provider callback. IntentID is set for
// payment intent events only.
type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
}

type Stripe struct {
	api            *client.API
	endpointSecret string
}

type StripeOption func(*stripe.BackendConfig)

// WithBaseURL points the client at another API host, e.g. stripe-mock.
func WithBaseURL(url string) StripeOption {
	return func(c *stripe.BackendConfig) { c.URL = stripe.String(url) }
}

func WithHTTPClient(hc *http.Client) StripeOption {
	return func(c *stripe.BackendConfig) { c.HTTPClient = hc }
}

// NewStripe builds a client. Requests are not retried: a failed intent is
// reported to the caller instead.
func NewStripe(apiKey, endpointSecret string, opts ...StripeOption) *Stripe {
	cfg := &stripe.BackendConfig{MaxNetworkRetries: stripe.Int64(0)}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Stripe{
		api:            client.New(apiKey, stripe.NewBackendsWithConfig(cfg)),
		endpointSecret: endpointSecret,
	}
}

// CreateIntent starts a card payment of amount (major currency units).
func (s *Stripe) CreateIntent(ctx context.Context, amount float64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(MinorUnits(amount)),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ParseWebhook verifies the Stripe-Signature header against the endpoint
// secret and decodes the event.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.endpointSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, errs.Wrap(errs.ErrValidation, "Invalid signature", err)
		}
		return nil, errs.Wrap(errs.ErrValidation, "Invalid payload", err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, errs.Wrap(errs.ErrValidation, "Invalid payload", err)
		}
		out.IntentID = pi.ID
	}
	return out, nil
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// classify maps provider failures caused by the request (4xx) to validation
// errors and everything else to upstream errors.
func classify(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.HTTPStatusCode >= 400 && serr.HTTPStatusCode < 500 {
		detail := serr.Msg
		if detail == "" {
			detail = "Payment provider rejected the request"
		}
		return errs.Wrap(errs.ErrValidation, detail, err)
	}
	return errs.Wrap(errs.ErrUpstream, "Payment provider unavailable", err)
}
