package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/stripe/stripe-go/v84"
	"github.com/visiona-app/visiona/internal/audit"
	"github.com/visiona-app/visiona/internal/models"
	"github.com/visiona-app/visiona/internal/store"
)

var (
	ErrInvalidSignature      = errors.New("invalid event signature")
	ErrMissingUserReference  = errors.New("event metadata lacks a user reference")
	ErrPaymentRecordNotFound = errors.New("payment record not found")
)

type SignatureVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error)
}

type Store interface {
	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error
	GetPaymentRecordByChargeRef(ctx context.Context, chargeRef string) (*models.PaymentRecord, error)
	GetPaymentRecordByCustomerRef(ctx context.Context, customerRef string) (*models.PaymentRecord, error)
	UpdatePaymentRecordStatus(ctx context.Context, recordID int64, status string) error
}

// Ingestor consumes signed payment-processor events and updates payment
// records idempotently. It is the only component that mutates them.
type Ingestor struct {
	verifier SignatureVerifier
	store    Store
	audit    audit.Writer
	log      *slog.Logger
}

func NewIngestor(verifier SignatureVerifier, store Store, auditWriter audit.Writer, log *slog.Logger) *Ingestor {
	return &Ingestor{
		verifier: verifier,
		store:    store,
		audit:    auditWriter,
		log:      log,
	}
}

// Ingest verifies the event before any state change; unverified events are
// rejected whole. Unrecognized event kinds are accepted and ignored.
func (i *Ingestor) Ingest(ctx context.Context, payload []byte, signature string) error {
	event, err := i.verifier.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return i.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		return i.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return i.handleSubscriptionDeleted(ctx, event)
	default:
		i.log.Info("ignoring unrecognized event kind", "type", event.Type)
		return nil
	}
}

func (i *Ingestor) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	session, err := parseEventData[checkoutSession](event)
	if err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	userID, err := strconv.ParseInt(session.Metadata["user_id"], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: checkout session %s", ErrMissingUserReference, session.ID)
	}

	existing, err := i.store.GetPaymentRecordByChargeRef(ctx, session.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up payment record: %w", err)
	}
	if existing != nil {
		// Redelivered event; the record already exists.
		i.log.Info("skipping duplicate checkout event", "charge_ref", session.ID)
		return nil
	}

	record := &models.PaymentRecord{
		UserID:      userID,
		ChargeRef:   session.ID,
		CustomerRef: session.Customer,
		Amount:      session.AmountTotal,
		Currency:    session.Currency,
		Status:      models.PaymentStatusActive,
	}
	if err := i.store.CreatePaymentRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to store payment record: %w", err)
	}

	i.recordAudit(ctx, userID, "payment_successful", map[string]any{
		"payment_id": record.ID,
		"charge_ref": session.ID,
		"amount":     session.AmountTotal,
		"currency":   session.Currency,
	})
	return nil
}

func (i *Ingestor) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	sub, err := parseEventData[subscriptionEvent](event)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	record, err := i.lookupByCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}

	if record.Status == sub.Status {
		return nil
	}
	if err := i.store.UpdatePaymentRecordStatus(ctx, record.ID, sub.Status); err != nil {
		return fmt.Errorf("failed to update payment record: %w", err)
	}

	i.recordAudit(ctx, record.UserID, "subscription_updated", map[string]any{
		"payment_id":   record.ID,
		"subscription": sub.ID,
		"status":       sub.Status,
	})
	return nil
}

func (i *Ingestor) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	sub, err := parseEventData[subscriptionEvent](event)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	record, err := i.lookupByCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}

	if record.Status == models.PaymentStatusCanceled {
		return nil
	}
	if err := i.store.UpdatePaymentRecordStatus(ctx, record.ID, models.PaymentStatusCanceled); err != nil {
		return fmt.Errorf("failed to update payment record: %w", err)
	}

	i.recordAudit(ctx, record.UserID, "subscription_canceled", map[string]any{
		"payment_id":   record.ID,
		"subscription": sub.ID,
	})
	return nil
}

func (i *Ingestor) lookupByCustomer(ctx context.Context, customerRef string) (*models.PaymentRecord, error) {
	record, err := i.store.GetPaymentRecordByCustomerRef(ctx, customerRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %s", ErrPaymentRecordNotFound, customerRef)
		}
		return nil, fmt.Errorf("failed to look up payment record: %w", err)
	}
	return record, nil
}

func (i *Ingestor) recordAudit(ctx context.Context, userID int64, action string, details map[string]any) {
	if err := i.audit.Record(ctx, userID, action, details); err != nil {
		i.log.Error("failed to write audit entry", "action", action, "err", err)
	}
}

func parseEventData[T any](event *stripe.Event) (*T, error) {
	var data T
	if err := json.Unmarshal(event.Data.Raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

type checkoutSession struct {
	ID          string            `json:"id"`
	Customer    string            `json:"customer"`
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

type subscriptionEvent struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}
