package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
	postgresrepo "github.com/gatepass/gatepass/internal/repository/postgres"
	redisrepo "github.com/gatepass/gatepass/internal/repository/redis"
)

type Config struct {
	EventSummaryTTL time.Duration
	SectionsTTL     time.Duration
	EventListTTL    time.Duration
	DefaultPage     int
	MaxPage         int
}

// Service serves the read side of the catalog: event summaries and live
// per-section availability, cached with short TTLs.
type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.SectionsTTL <= 0 {
		cfg.SectionsTTL = 15 * time.Second
	}

	if cfg.EventListTTL <= 0 {
		cfg.EventListTTL = 60 * time.Second
	}

	if cfg.DefaultPage <= 0 {
		cfg.DefaultPage = 50
	}

	if cfg.MaxPage <= 0 {
		cfg.MaxPage = 200
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetEvent retrieves an event summary through the cache.
//
// Returns:
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.query.GetEvent"

	key := redisrepo.KeyEventSummary(id)

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.EventSummaryTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Events().Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Event{}, ErrEventNotFound
				}

				return domain.Event{}, err
			}

			return *e, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// ListEvents returns the published events, newest page first. Only the
// default first page is cached; deep pages go straight to storage.
func (s *Service) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "service.query.ListEvents"

	if limit <= 0 {
		limit = s.cfg.DefaultPage
	}

	if limit > s.cfg.MaxPage {
		limit = s.cfg.MaxPage
	}

	if limit == s.cfg.DefaultPage && offset == 0 {
		events, err := redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisrepo.KeyEventList(),
			s.cfg.EventListTTL,
			func(ctx context.Context) ([]domain.Event, error) {
				return s.store.Events().List(ctx, limit, 0)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return events, nil
	}

	events, err := s.store.Events().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// SectionsByEvent retrieves every section of an event with its live
// availability, through the short-TTL cache.
//
// Returns:
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) SectionsByEvent(ctx context.Context, eventID int64) ([]domain.Section, error) {
	const op = "service.query.SectionsByEvent"

	key := redisrepo.KeyEventSections(eventID)

	sections, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.SectionsTTL,
		func(ctx context.Context) ([]domain.Section, error) {
			secs, err := s.store.Events().SectionsByEvent(ctx, eventID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, ErrEventNotFound
				}

				return nil, err
			}

			return secs, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sections, nil
}
