package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
	"github.com/google/uuid"
)

// Store finalizes bookings. ConfirmPayment must apply the status flip, the
// reference attach and the discount usage commit atomically, guarded on the
// booking still being pending.
type Store interface {
	ConfirmPayment(ctx context.Context, id uuid.UUID, reference string) (*domain.Booking, error)
}

// Service verifies manually submitted bank-transfer references (UTR codes).
// It never touches inventory: a confirmed booking simply keeps the capacity
// its hold already owns.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Verify matches the payment reference to the booking and confirms it.
// Exactly one of two concurrent verifications succeeds; the loser observes
// ErrAlreadyFinalized. A reference already attached to another booking fails
// with ErrDuplicateReference and is left for manual review.
func (s *Service) Verify(ctx context.Context, bookingID uuid.UUID, reference string) (*domain.Booking, error) {
	const op = "service.payment.Verify"

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrEmptyReference)
	}

	b, err := s.store.ConfirmPayment(ctx, bookingID, reference)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		case errors.Is(err, repository.ErrAlreadyFinalized):
			return nil, fmt.Errorf("%s:%w", op, ErrAlreadyFinalized)
		case errors.Is(err, repository.ErrDuplicateReference):
			return nil, fmt.Errorf("%s:%w", op, ErrDuplicateReference)
		case errors.Is(err, repository.ErrDiscountExhausted):
			return nil, fmt.Errorf("%s:%w", op, ErrDiscountExhausted)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}
