package billing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
	"github.com/visiona-app/visiona/internal/config"
)

type Billing struct {
	sc            *stripe.Client
	webhookSecret string
	priceID       string
}

func NewBilling(cfg *config.Config) *Billing {
	sc := stripe.NewClient(cfg.StripeSecretKey)
	return &Billing{
		sc:            sc,
		webhookSecret: cfg.StripeWebhookSecret,
		priceID:       cfg.StripePriceID,
	}
}

func (b *Billing) VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, b.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook signature: %w", err)
	}
	return &event, nil
}

// CreateSubscriptionCheckout opens a checkout session for the premium plan.
// The internal user id rides along in session metadata; the webhook ingestor
// requires it to attribute the resulting payment record.
func (b *Billing) CreateSubscriptionCheckout(ctx context.Context, userID int64, email, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		CustomerEmail: stripe.String(email),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(b.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"user_id": strconv.FormatInt(userID, 10),
		},
	}

	session, err := b.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session, nil
}
