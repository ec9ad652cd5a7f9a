package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/eaglemart/platform/payment-service/internal/provider"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/events/eventstest"
	"github.com/eaglemart/platform/shared/models"
)

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

var paymentCols = []string{"id", "amount", "currency", "payment_method", "status", "provider_ref", "created_at", "updated_at"}

type fakeProvider struct {
	intent    *provider.Intent
	intentErr error
	event     *provider.WebhookEvent
	eventErr  error
	calls     int
}

func (f *fakeProvider) CreateIntent(_ context.Context, _ float64, _ string) (*provider.Intent, error) {
	f.calls++
	return f.intent, f.intentErr
}

func (f *fakeProvider) ParseWebhook(_ []byte, _ string) (*provider.WebhookEvent, error) {
	return f.event, f.eventErr
}

func newTestService(t *testing.T, pub events.Publisher, p PaymentProvider) (*PaymentCommandService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	svc := NewPaymentCommandService(db, pub, p, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func TestCreatePaymentIntent(t *testing.T) {
	pub := &eventstest.Recorder{}
	p := &fakeProvider{intent: &provider.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}}
	svc, mock := newTestService(t, pub, p)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), 25.0, "usd", "stripe", models.PaymentPending, "pi_1", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	view, err := svc.CreatePaymentIntent(context.Background(), cqrs.CreatePaymentIntentCommand{Amount: 25, Currency: "usd"})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if view.ClientSecret != "pi_1_secret" || view.Payment.ProviderRef != "pi_1" {
		t.Errorf("unexpected view %+v", view)
	}
	payload := pub.Events()[0].Event.Payload.(events.PaymentPayload)
	if payload.ProviderRef != "pi_1" || payload.Status != models.PaymentPending {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestCreatePaymentIntent_ProviderFailure(t *testing.T) {
	pub := &eventstest.Recorder{}
	p := &fakeProvider{intentErr: errs.New(errs.ErrUpstream, "Payment provider unavailable")}
	svc, _ := newTestService(t, pub, p)

	_, err := svc.CreatePaymentIntent(context.Background(), cqrs.CreatePaymentIntentCommand{Amount: 25, Currency: "usd"})
	if !errors.Is(err, errs.ErrUpstream) {
		t.Fatalf("CreatePaymentIntent = %v, want ErrUpstream", err)
	}
	if len(pub.Events()) != 0 {
		t.Error("no event may be published when the provider fails")
	}
}

func TestHandleProviderWebhook_Succeeded(t *testing.T) {
	pub := &eventstest.Recorder{}
	p := &fakeProvider{event: &provider.WebhookEvent{ID: "evt_1", Type: provider.EventIntentSucceeded, IntentID: "pi_1"}}
	svc, mock := newTestService(t, pub, p)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE payments").
		WithArgs("pi_1", models.PaymentSucceeded, fixedNow).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow("pay-1", 25.0, "usd", "stripe", "succeeded", "pi_1", fixedNow, fixedNow))
	mock.ExpectCommit()

	if err := svc.HandleProviderWebhook(context.Background(), cqrs.HandleProviderWebhookCommand{Payload: []byte("{}"), Signature: "sig"}); err != nil {
		t.Fatalf("HandleProviderWebhook: %v", err)
	}
	ev := pub.Events()[0].Event
	if ev.Operation != events.OpUpdate || ev.EntityID != "pay-1" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHandleProviderWebhook_UnknownIntent(t *testing.T) {
	pub := &eventstest.Recorder{}
	p := &fakeProvider{event: &provider.WebhookEvent{Type: provider.EventIntentFailed, IntentID: "pi_gone"}}
	svc, mock := newTestService(t, pub, p)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE payments").WillReturnRows(sqlmock.NewRows(paymentCols))
	mock.ExpectRollback()

	if err := svc.HandleProviderWebhook(context.Background(), cqrs.HandleProviderWebhookCommand{}); err != nil {
		t.Fatalf("HandleProviderWebhook: %v", err)
	}
	if len(pub.Events()) != 0 {
		t.Error("unexpected event")
	}
}

func TestHandleProviderWebhook_IgnoresOtherEvents(t *testing.T) {
	p := &fakeProvider{event: &provider.WebhookEvent{Type: "charge.refunded"}}
	svc, _ := newTestService(t, &eventstest.Recorder{}, p)

	if err := svc.HandleProviderWebhook(context.Background(), cqrs.HandleProviderWebhookCommand{}); err != nil {
		t.Fatalf("HandleProviderWebhook: %v", err)
	}
}

func TestHandleProviderWebhook_BadSignature(t *testing.T) {
	p := &fakeProvider{eventErr: errs.New(errs.ErrValidation, "Invalid signature")}
	svc, _ := newTestService(t, &eventstest.Recorder{}, p)

	err := svc.HandleProviderWebhook(context.Background(), cqrs.HandleProviderWebhookCommand{})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("HandleProviderWebhook = %v, want ErrValidation", err)
	}
}

func TestDeletePayment_PublishFailureRollsBack(t *testing.T) {
	pub := &eventstest.Recorder{Err: errors.New("broker down")}
	svc, mock := newTestService(t, pub, &fakeProvider{})

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM payments").
		WithArgs("pay-1").
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow("pay-1", 25.0, "usd", "card", "pending", nil, fixedNow, fixedNow))
	mock.ExpectRollback()

	err := svc.DeletePayment(context.Background(), cqrs.DeletePaymentCommand{PaymentID: "pay-1"})
	if !errors.Is(err, errs.ErrPublish) {
		t.Fatalf("DeletePayment = %v, want ErrPublish", err)
	}
}
