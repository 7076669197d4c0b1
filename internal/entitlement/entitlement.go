package entitlement

import (
	"context"

	"github.com/visiona-app/visiona/internal/models"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Entitlement holds the limits derived from a user's payment state.
// ModelLimit of 0 means unbounded.
type Entitlement struct {
	Tier                 Tier `json:"tier"`
	DailyGenerationLimit int  `json:"daily_generation_limit"`
	ModelLimit           int  `json:"model_limit"`
}

func (e Entitlement) ModelsUnlimited() bool {
	return e.ModelLimit <= 0
}

var tierEntitlements = map[Tier]Entitlement{
	TierFree: {
		Tier:                 TierFree,
		DailyGenerationLimit: 20,
		ModelLimit:           5,
	},
	TierPremium: {
		Tier:                 TierPremium,
		DailyGenerationLimit: 100,
		ModelLimit:           0,
	},
}

type PaymentSource interface {
	// ListPaymentRecordsByUser returns the user's payment records newest first.
	ListPaymentRecordsByUser(ctx context.Context, userID int64) ([]*models.PaymentRecord, error)
}

// Resolver derives a user's entitlement from stored payment records. It has
// no side effects; it fails only when the store is unreachable.
type Resolver struct {
	payments PaymentSource
}

func NewResolver(payments PaymentSource) *Resolver {
	return &Resolver{payments: payments}
}

func (r *Resolver) Resolve(ctx context.Context, userID int64) (Entitlement, error) {
	records, err := r.payments.ListPaymentRecordsByUser(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	return ResolveFromRecords(records), nil
}

// ResolveFromRecords picks the tier from a recency-sorted record list: the
// newest record with status "active" grants premium, otherwise free.
func ResolveFromRecords(records []*models.PaymentRecord) Entitlement {
	for _, record := range records {
		if record.Status == models.PaymentStatusActive {
			return tierEntitlements[TierPremium]
		}
	}
	return tierEntitlements[TierFree]
}
