package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	redisx "github.com/gatepass/gatepass/internal/redis"
	redisrepo "github.com/gatepass/gatepass/internal/repository/redis"
)

// Store reclaims overdue holds. ExpireDue must be idempotent: it only acts
// on bookings still pending and past their deadline.
type Store interface {
	ExpireDue(ctx context.Context, now time.Time) (domain.SweepResult, error)
}

// Service is the expiry reaper. The same Sweep runs on the scheduler and
// behind the operator's cleanup endpoint, so both paths share one pass.
type Service struct {
	store  Store
	cache  *redisrepo.Cache
	pubsub *redisx.EventsPubSub
	logger *slog.Logger
}

func New(store Store, cache *redisrepo.Cache, pubsub *redisx.EventsPubSub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		logger: logger,
	}
}

// Sweep expires every pending booking past its hold deadline and returns the
// reclaimed capacity to the ledger.
func (s *Service) Sweep(ctx context.Context) (domain.SweepResult, error) {
	const op = "service.sweeper.Sweep"

	res, err := s.store.ExpireDue(ctx, time.Now())
	if err != nil {
		return domain.SweepResult{}, fmt.Errorf("%s:%w", op, err)
	}

	if res.ExpiredCount == 0 {
		return res, nil
	}

	s.logger.Info("expired overdue holds",
		"expired_count", res.ExpiredCount,
		"inventory_released", res.InventoryReleased,
	)

	if len(res.ClampedSections) > 0 {
		s.logger.Warn("release clamped at zero",
			"section_ids", res.ClampedSections,
		)
	}

	for _, eventID := range res.EventIDs {
		if s.cache != nil {
			_ = s.cache.InvalidateEvent(ctx, eventID)
		}
		if s.pubsub != nil {
			_ = s.pubsub.PublishEventChanged(ctx, eventID)
		}
	}

	return res, nil
}
