package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	redisx "github.com/gatepass/gatepass/internal/redis"
	"github.com/gatepass/gatepass/internal/repository"
	redisrepo "github.com/gatepass/gatepass/internal/repository/redis"
	"github.com/gatepass/gatepass/internal/service/discount"
	"github.com/google/uuid"
)

type Config struct {
	// HoldDuration bounds how long created bookings keep their capacity.
	HoldDuration time.Duration
}

// Store persists bookings. CreateWithHold must reserve capacity and write
// the booking atomically, so a failed request leaves no partial hold behind.
type Store interface {
	CreateWithHold(ctx context.Context, b *domain.Booking) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (released int64, eventID int64, clamped []int64, err error)
}

// Catalog is the read-only event/section lookup.
type Catalog interface {
	Get(ctx context.Context, id int64) (*domain.Event, error)
	SectionsByEvent(ctx context.Context, eventID int64) ([]domain.Section, error)
}

// Discounts resolves discount codes for validation at hold time.
type Discounts interface {
	GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error)
}

type Service struct {
	store     Store
	catalog   Catalog
	discounts Discounts
	cache     *redisrepo.Cache
	pubsub    *redisx.EventsPubSub
	limiter   *redisrepo.SlidingWindowLimiter
	logger    *slog.Logger
	cfg       Config
}

func New(
	store Store,
	catalog Catalog,
	discounts Discounts,
	cache *redisrepo.Cache,
	pubsub *redisx.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.HoldDuration <= 0 {
		cfg.HoldDuration = 10 * time.Minute
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:     store,
		catalog:   catalog,
		discounts: discounts,
		cache:     cache,
		pubsub:    pubsub,
		limiter:   limiter,
		logger:    logger,
		cfg:       cfg,
	}
}

type CreateParams struct {
	EventID      int64
	Customer     domain.CustomerInfo
	Tickets      []domain.SelectedTicket
	DiscountCode string
	RateKey      string
}

// Create places a hold: it prices the selected tickets from the catalog,
// validates the optional discount, reserves capacity for every section and
// persists the pending booking in one atomic step. Any failure leaves the
// ledger untouched.
//
// Returns:
//   - error: *booking.InsufficientCapacityError naming the offending section.
//   - error: *booking.InvalidDiscountError with the validator's reason.
//   - error: *booking.UnknownSectionError, booking.ErrEventNotFound,
//     booking.ErrEmptySelection, *booking.RateLimitedError.
func (s *Service) Create(ctx context.Context, p CreateParams) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if len(p.Tickets) == 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrEmptySelection)
	}

	for _, t := range p.Tickets {
		if t.Quantity <= 0 {
			return nil, fmt.Errorf("%s:%w", op, ErrEmptySelection)
		}
	}

	if s.limiter != nil && p.RateKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, p.RateKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w", op, &RateLimitedError{RetryAfter: retry})
		}
	}

	event, err := s.catalog.Get(ctx, p.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if !event.Published {
		return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
	}

	sections, err := s.catalog.SectionsByEvent(ctx, p.EventID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	byID := make(map[int64]domain.Section, len(sections))
	for _, sec := range sections {
		byID[sec.ID] = sec
	}

	// merge repeated sections so the reserve and the ticket rows see one
	// entry per section
	tickets := make([]domain.SelectedTicket, 0, len(p.Tickets))
	ticketIdx := make(map[int64]int, len(p.Tickets))
	for _, t := range p.Tickets {
		sec, ok := byID[t.SectionID]
		if !ok {
			return nil, fmt.Errorf("%s:%w", op, &UnknownSectionError{SectionID: t.SectionID})
		}
		if i, seen := ticketIdx[t.SectionID]; seen {
			tickets[i].Quantity += t.Quantity
			continue
		}
		ticketIdx[t.SectionID] = len(tickets)
		tickets = append(tickets, domain.SelectedTicket{
			SectionID:      t.SectionID,
			Quantity:       t.Quantity,
			UnitPriceCents: sec.UnitPriceCents,
		})
	}

	expiresAt := time.Now().Add(s.cfg.HoldDuration)
	b := &domain.Booking{
		ID:            uuid.New(),
		EventID:       p.EventID,
		Customer:      p.Customer,
		Tickets:       tickets,
		Status:        domain.BookingPending,
		HoldExpiresAt: &expiresAt,
		DiscountCode:  p.DiscountCode,
	}

	subtotal := b.SubtotalCents()
	total := subtotal

	if p.DiscountCode != "" {
		dc, err := s.discounts.GetByCode(ctx, p.DiscountCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%s:%w", op, &InvalidDiscountError{Reason: discount.ReasonNotFound})
			}
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		cents, reason := discount.Evaluate(dc, p.EventID, subtotal, time.Now())
		if reason != "" {
			return nil, fmt.Errorf("%s:%w", op, &InvalidDiscountError{Reason: reason})
		}

		total = subtotal - cents
		if total < 0 {
			total = 0
		}
	}

	b.TotalCents = total

	if err := s.store.CreateWithHold(ctx, b); err != nil {
		var ic *repository.InsufficientCapacityError
		if errors.As(err, &ic) {
			return nil, fmt.Errorf("%s:%w", op, &InsufficientCapacityError{
				SectionID: ic.SectionID,
				Available: ic.Available,
			})
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.notifyChanged(ctx, p.EventID)

	return b, nil
}

// Get returns the booking snapshot.
//
// Returns:
//   - error: booking.ErrBookingNotFound if the booking does not exist.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "service.booking.Get"

	b, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

// Cancel force-cancels a pending booking and releases its hold.
//
// Returns:
//   - int64: total quantity returned to the ledger.
//   - error: booking.ErrBookingNotFound, booking.ErrAlreadyFinalized.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (int64, error) {
	const op = "service.booking.Cancel"

	released, eventID, clamped, err := s.store.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}
		if errors.Is(err, repository.ErrAlreadyFinalized) {
			return 0, fmt.Errorf("%s:%w", op, ErrAlreadyFinalized)
		}
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	if len(clamped) > 0 {
		s.logger.Warn("release clamped at zero",
			"booking_id", id,
			"section_ids", clamped,
		)
	}

	s.notifyChanged(ctx, eventID)

	return released, nil
}

func (s *Service) notifyChanged(ctx context.Context, eventID int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}
}
