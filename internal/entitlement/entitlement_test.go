package entitlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visiona-app/visiona/internal/models"
)

type fakePaymentSource struct {
	records []*models.PaymentRecord
	err     error
}

func (f *fakePaymentSource) ListPaymentRecordsByUser(ctx context.Context, userID int64) ([]*models.PaymentRecord, error) {
	return f.records, f.err
}

func TestResolveNoRecordsIsFree(t *testing.T) {
	resolver := NewResolver(&fakePaymentSource{})

	ent, err := resolver.Resolve(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, TierFree, ent.Tier)
	assert.Equal(t, 20, ent.DailyGenerationLimit)
	assert.Equal(t, 5, ent.ModelLimit)
	assert.False(t, ent.ModelsUnlimited())
}

func TestResolveActiveRecordIsPremium(t *testing.T) {
	resolver := NewResolver(&fakePaymentSource{
		records: []*models.PaymentRecord{
			{ID: 2, UserID: 1, Status: models.PaymentStatusActive},
			{ID: 1, UserID: 1, Status: models.PaymentStatusCanceled},
		},
	})

	ent, err := resolver.Resolve(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, TierPremium, ent.Tier)
	assert.Equal(t, 100, ent.DailyGenerationLimit)
	assert.True(t, ent.ModelsUnlimited())
}

func TestResolveCanceledOnlyIsFree(t *testing.T) {
	resolver := NewResolver(&fakePaymentSource{
		records: []*models.PaymentRecord{
			{ID: 1, UserID: 1, Status: models.PaymentStatusCanceled},
		},
	})

	ent, err := resolver.Resolve(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, TierFree, ent.Tier)
}

func TestResolveStoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	resolver := NewResolver(&fakePaymentSource{err: storeErr})

	_, err := resolver.Resolve(context.Background(), 1)

	assert.ErrorIs(t, err, storeErr)
}

func TestTierLimitsArePositive(t *testing.T) {
	for tier, ent := range tierEntitlements {
		assert.Positive(t, ent.DailyGenerationLimit, "tier %s", tier)
	}
}
