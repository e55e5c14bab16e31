package payment

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v79"

	"github.com/lexhewitt/mcgann-boxing-sub000/config"
)

func TestNewStripeGateway_NotConfigured(t *testing.T) {
	if _, err := NewStripeGateway(&config.StripeConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDecodeEvent_CheckoutCompleted(t *testing.T) {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":             "cs_test_1",
		"object":         "checkout.session",
		"payment_status": "paid",
		"metadata":       map[string]string{"appointment_id": "appt-1"},
	})
	evt := stripe.Event{ID: "evt_1", Type: "checkout.session.completed", Data: &stripe.EventData{Raw: raw}}

	got, err := decodeEvent(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SessionID != "cs_test_1" || got.AppointmentID != "appt-1" || got.PaymentStatus != "paid" {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestDecodeEvent_FallsBackToClientReference(t *testing.T) {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":                  "cs_test_2",
		"object":              "checkout.session",
		"client_reference_id": "appt-2",
	})
	evt := stripe.Event{ID: "evt_2", Type: "checkout.session.expired", Data: &stripe.EventData{Raw: raw}}

	got, err := decodeEvent(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AppointmentID != "appt-2" {
		t.Errorf("expected appt-2, got %q", got.AppointmentID)
	}
}

func TestDecodeEvent_OtherTypesPassThrough(t *testing.T) {
	got, err := decodeEvent(stripe.Event{ID: "evt_3", Type: "charge.refunded"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SessionID != "" || got.Type != "charge.refunded" {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestParseWebhook_BadSignature(t *testing.T) {
	g := &StripeGateway{webhookSecret: "whsec_test"}
	if _, err := g.ParseWebhook([]byte(`{}`), "t=1,v1=deadbeef"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}
