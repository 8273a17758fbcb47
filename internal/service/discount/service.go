package discount

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
)

// Store is the read side of the discount catalog. Validation never mutates
// used_count; the increment is committed only when the owning booking is
// confirmed.
type Store interface {
	GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error)
}

type Result struct {
	Valid         bool
	DiscountCents int64
	Reason        string
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Validate checks a code against an event and amount and computes the
// discount it would grant. An unusable code is a negative Result, not an
// error; errors are reserved for storage faults.
func (s *Service) Validate(ctx context.Context, code string, eventID int64, amountCents int64) (Result, error) {
	const op = "service.discount.Validate"

	dc, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{Reason: ReasonNotFound}, nil
		}
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	cents, reason := Evaluate(dc, eventID, amountCents, time.Now())
	if reason != "" {
		return Result{Reason: reason}, nil
	}

	return Result{Valid: true, DiscountCents: cents}, nil
}

const (
	ReasonNotFound      = "code not found"
	ReasonInactive      = "code is inactive"
	ReasonNotYetValid   = "code is not yet valid"
	ReasonExpired       = "code has expired"
	ReasonNotApplicable = "code does not apply to this event"
	ReasonExhausted     = "usage limit reached"
)

// Evaluate applies the validation rules in order: active flag, validity
// window, event allow-list, usage cap. It returns the discount in cents and
// an empty reason when the code is usable. Fixed discounts are capped at the
// amount; percentage discounts are capped at 100%.
func Evaluate(dc *domain.DiscountCode, eventID int64, amountCents int64, now time.Time) (int64, string) {
	if !dc.Active {
		return 0, ReasonInactive
	}

	if now.Before(dc.ValidFrom) {
		return 0, ReasonNotYetValid
	}

	if now.After(dc.ValidTill) {
		return 0, ReasonExpired
	}

	if len(dc.EventIDs) > 0 && !slices.Contains(dc.EventIDs, eventID) {
		return 0, ReasonNotApplicable
	}

	if dc.MaxUses > 0 && dc.UsedCount >= dc.MaxUses {
		return 0, ReasonExhausted
	}

	switch dc.Type {
	case domain.DiscountFixed:
		return min(dc.Value, amountCents), ""
	case domain.DiscountPercentage:
		pct := min(dc.Value, 100)
		return amountCents * pct / 100, ""
	default:
		return 0, ReasonInactive
	}
}
