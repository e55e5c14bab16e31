package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/lexhewitt/mcgann-boxing-sub000/config"
)

var (
	ErrNotConfigured    = errors.New("payment: stripe not configured")
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
)

// Stripe refuses checkout sessions expiring sooner than 30 minutes.
const minSessionLifetime = 31 * time.Minute

const webhookTolerance = 5 * time.Minute

// Event types the booking flow reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// CheckoutRequest one appointment to pay for
type CheckoutRequest struct {
	AppointmentID string
	Description   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	ExpiresAt     time.Time
}

// CheckoutSession hosted payment page
type CheckoutSession struct {
	ID  string
	URL string
}

// Event verified webhook event reduced to what the booking flow needs
type Event struct {
	ID            string
	Type          string
	SessionID     string
	AppointmentID string
	PaymentStatus string
}

// Gateway payment provider
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// StripeGateway Stripe Checkout in payment mode
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeGateway returns ErrNotConfigured when no secret key is set.
func NewStripeGateway(cfg *config.StripeConfig) (*StripeGateway, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}, nil
}

// CreateCheckout opens a checkout session for the appointment. The
// appointment id doubles as idempotency key so a retried booking reuses the
// same session.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	expiresAt := req.ExpiresAt
	if earliest := time.Now().Add(minSessionLifetime); expiresAt.Before(earliest) {
		expiresAt = earliest
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.AppointmentID),
		ExpiresAt:         stripe.Int64(expiresAt.Unix()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("appointment_id", req.AppointmentID)
	params.IdempotencyKey = stripe.String("appointment:" + req.AppointmentID)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout events.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	evt, err := webhook.ConstructEventWithTolerance(payload, signature, g.webhookSecret, webhookTolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(evt)
}

func decodeEvent(evt stripe.Event) (*Event, error) {
	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = session.ID
		out.AppointmentID = session.Metadata["appointment_id"]
		if out.AppointmentID == "" {
			out.AppointmentID = session.ClientReferenceID
		}
		out.PaymentStatus = string(session.PaymentStatus)
	}
	return out, nil
}
