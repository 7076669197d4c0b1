package entitlement

import (
	"context"
	"errors"
	"time"
)

var (
	ErrQuotaExceeded     = errors.New("daily generation limit reached")
	ErrModelLimitReached = errors.New("model limit reached")
)

type UsageSource interface {
	CountGenerationsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	CountModelsByUser(ctx context.Context, userID int64) (int, error)
}

// QuotaGuard enforces per-day generation counts and lifetime model counts
// against the resolved entitlement. Checks are advisory reads followed by a
// write elsewhere: two concurrent requests near the boundary may both pass,
// transiently exceeding the limit by at most the number of in-flight requests
// for that user. That soft-limit slack is accepted.
type QuotaGuard struct {
	usage    UsageSource
	resolver *Resolver
}

func NewQuotaGuard(usage UsageSource, resolver *Resolver) *QuotaGuard {
	return &QuotaGuard{usage: usage, resolver: resolver}
}

// startOfDay returns UTC midnight of the current day. The daily window resets
// at UTC midnight regardless of the caller's locale.
func startOfDay(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (g *QuotaGuard) CheckGenerationQuota(ctx context.Context, userID int64) error {
	ent, err := g.resolver.Resolve(ctx, userID)
	if err != nil {
		return err
	}

	count, err := g.usage.CountGenerationsSince(ctx, userID, startOfDay(time.Now()))
	if err != nil {
		return err
	}

	if count >= ent.DailyGenerationLimit {
		return ErrQuotaExceeded
	}
	return nil
}

func (g *QuotaGuard) CheckModelQuota(ctx context.Context, userID int64) error {
	ent, err := g.resolver.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if ent.ModelsUnlimited() {
		return nil
	}

	count, err := g.usage.CountModelsByUser(ctx, userID)
	if err != nil {
		return err
	}

	if count >= ent.ModelLimit {
		return ErrModelLimitReached
	}
	return nil
}

type QuotaSummary struct {
	Tier             Tier `json:"tier"`
	GenerationsUsed  int  `json:"generations_used"`
	GenerationsLimit int  `json:"generations_limit"`
	ModelsUsed       int  `json:"models_used"`
	ModelsLimit      int  `json:"models_limit"`
	ModelsUnlimited  bool `json:"models_unlimited"`
}

func (g *QuotaGuard) Summary(ctx context.Context, userID int64) (*QuotaSummary, error) {
	ent, err := g.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	generations, err := g.usage.CountGenerationsSince(ctx, userID, startOfDay(time.Now()))
	if err != nil {
		return nil, err
	}

	modelCount, err := g.usage.CountModelsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &QuotaSummary{
		Tier:             ent.Tier,
		GenerationsUsed:  generations,
		GenerationsLimit: ent.DailyGenerationLimit,
		ModelsUsed:       modelCount,
		ModelsLimit:      ent.ModelLimit,
		ModelsUnlimited:  ent.ModelsUnlimited(),
	}, nil
}
