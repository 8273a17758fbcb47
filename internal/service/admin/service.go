package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatepass/gatepass/internal/domain"
	redisx "github.com/gatepass/gatepass/internal/redis"
	"github.com/gatepass/gatepass/internal/repository"
	postgresrepo "github.com/gatepass/gatepass/internal/repository/postgres"
	redisrepo "github.com/gatepass/gatepass/internal/repository/redis"
	"github.com/gatepass/gatepass/internal/uow"
)

// Service covers the operator surface: seeding the catalog, adjusting
// capacity and managing discount codes.
type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisx.EventsPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisx.EventsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

// CreateEvent creates an event with its sections in one transaction.
//
// Returns:
//   - int64: the created event ID.
//   - error: admin.ErrNoSections, admin.ErrSectionConflict.
func (s *Service) CreateEvent(ctx context.Context, e *domain.Event, sections []domain.Section) (int64, error) {
	const op = "service.admin.CreateEvent"

	if len(sections) == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoSections)
	}

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		id, err = s.store.Events().With(tx).CreateWithSections(ctx, e, sections)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrSectionConflict)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.Del(ctx, redisrepo.KeyEventList())
			}
		})

		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// AdjustSectionCapacity applies a capacity delta, refusing changes that would
// undercut active holds.
//
// Returns:
//   - int32: the new total capacity.
//   - error: admin.ErrSectionNotFound, admin.ErrCapacityBelowHeld.
func (s *Service) AdjustSectionCapacity(ctx context.Context, sectionID int64, delta int32) (int32, error) {
	const op = "service.admin.AdjustSectionCapacity"

	total, eventID, err := s.store.Inventory().AdjustCapacity(ctx, sectionID, delta)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", op, ErrSectionNotFound)
		}

		if errors.Is(err, repository.ErrCapacityBelowHeld) {
			return 0, fmt.Errorf("%s: %w", op, ErrCapacityBelowHeld)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}

	return total, nil
}

// CreateDiscount registers a discount code.
//
// Returns:
//   - error: admin.ErrDiscountConflict if the code already exists.
//   - error: admin.ErrInvalidDiscount for a malformed definition.
func (s *Service) CreateDiscount(ctx context.Context, dc *domain.DiscountCode) error {
	const op = "service.admin.CreateDiscount"

	if dc.Code == "" || dc.Value <= 0 {
		return fmt.Errorf("%s: %w", op, ErrInvalidDiscount)
	}

	switch dc.Type {
	case domain.DiscountFixed:
	case domain.DiscountPercentage:
		if dc.Value > 100 {
			return fmt.Errorf("%s: %w", op, ErrInvalidDiscount)
		}
	default:
		return fmt.Errorf("%s: %w", op, ErrInvalidDiscount)
	}

	if !dc.ValidTill.After(dc.ValidFrom) {
		return fmt.Errorf("%s: %w", op, ErrInvalidDiscount)
	}

	if err := s.store.Discounts().Create(ctx, dc); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%s: %w", op, ErrDiscountConflict)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SetDiscountActive enables or disables a code.
//
// Returns:
//   - error: admin.ErrDiscountNotFound if the code does not exist.
func (s *Service) SetDiscountActive(ctx context.Context, code string, active bool) error {
	const op = "service.admin.SetDiscountActive"

	if err := s.store.Discounts().SetActive(ctx, code, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrDiscountNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
