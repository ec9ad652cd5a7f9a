package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/eaglemart/platform/shared/errs"
)

const testSecret = "whsec_test"

func newTestStripe(t *testing.T, h http.HandlerFunc) *Stripe {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewStripe("sk_test_123", testSecret, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestCreateIntent(t *testing.T) {
	var form url.Values
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"pi_123","object":"payment_intent","amount":1250,"currency":"usd","client_secret":"pi_123_secret_abc"}`)
	})

	intent, err := s.CreateIntent(context.Background(), 12.5, "USD")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_123" || intent.ClientSecret != "pi_123_secret_abc" {
		t.Errorf("unexpected intent %+v", intent)
	}
	if form.Get("amount") != "1250" || form.Get("currency") != "usd" {
		t.Errorf("unexpected request form %v", form)
	}
}

func TestCreateIntentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"card declined", http.StatusPaymentRequired, `{"error":{"type":"card_error","message":"Your card was declined."}}`, errs.ErrValidation},
		{"invalid request", http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"Invalid currency"}}`, errs.ErrValidation},
		{"provider outage", http.StatusInternalServerError, `{"error":{"type":"api_error","message":"boom"}}`, errs.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := s.CreateIntent(context.Background(), 5, "usd")
			if !errors.Is(err, tt.kind) {
				t.Fatalf("CreateIntent = %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestCreateIntentUnreachable(t *testing.T) {
	s := NewStripe("sk_test_123", testSecret, WithBaseURL("http://127.0.0.1:1"))
	_, err := s.CreateIntent(context.Background(), 5, "usd")
	if !errors.Is(err, errs.ErrUpstream) {
		t.Fatalf("CreateIntent = %v, want ErrUpstream", err)
	}
}

func TestParseWebhook(t *testing.T) {
	s := NewStripe("sk_test_123", testSecret)
	payload := []byte(`{"id":"evt_1","object":"event","api_version":"2020-08-27","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","object":"payment_intent"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testSecret})

	ev, err := s.ParseWebhook(payload, signed.Header)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if ev.ID != "evt_1" || ev.Type != EventIntentSucceeded || ev.IntentID != "pi_123" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestParseWebhookRejects(t *testing.T) {
	s := NewStripe("sk_test_123", testSecret)
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded"}`)
	foreign := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: "whsec_other"})
	garbage := []byte(`not json`)
	signedGarbage := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: garbage, Secret: testSecret})

	tests := []struct {
		name      string
		payload   []byte
		signature string
		detail    string
	}{
		{"missing signature", payload, "", "Invalid signature"},
		{"wrong secret", payload, foreign.Header, "Invalid signature"},
		{"malformed body", garbage, signedGarbage.Header, "Invalid payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ParseWebhook(tt.payload, tt.signature)
			if !errors.Is(err, errs.ErrValidation) || errs.Detail(err) != tt.detail {
				t.Fatalf("ParseWebhook = %v, want %q", err, tt.detail)
			}
		})
	}
}

func TestMinorUnits(t *testing.T) {
	if got := MinorUnits(19.99); got != 1999 {
		t.Errorf("MinorUnits(19.99) = %d", got)
	}
}
