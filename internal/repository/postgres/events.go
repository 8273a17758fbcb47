package postgres

import (
	"context"
	"fmt"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepo is the read side of the event/section catalog plus the admin
// writes that seed it. Capacity counters on sections belong to InventoryRepo.
type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *EventRepo) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	db := r.handle()

	var e domain.Event
	err := db.QueryRow(ctx,
		`SELECT id, name, venue, starts_at, ends_at, published
           FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Venue, &e.StartsAt, &e.EndsAt, &e.Published)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &e, nil
}

func (r *EventRepo) List(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, name, venue, starts_at, ends_at, published
           FROM events
          WHERE published
          ORDER BY starts_at, id
          LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Venue, &e.StartsAt, &e.EndsAt, &e.Published); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return events, nil
}

// SectionsByEvent returns every section of the event with live counters.
//
// Returns:
//   - error: repository.ErrNotFound if the event does not exist.
func (r *EventRepo) SectionsByEvent(ctx context.Context, eventID int64) ([]domain.Section, error) {
	const op = "postgres.EventRepo.SectionsByEvent"

	db := r.handle()

	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if !exists {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	rows, err := db.Query(ctx,
		`SELECT id, event_id, name, unit_price_cents, total_capacity, reserved_count
           FROM sections
          WHERE event_id = $1
          ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var sections []domain.Section
	for rows.Next() {
		var s domain.Section
		if err := rows.Scan(&s.ID, &s.EventID, &s.Name, &s.UnitPriceCents, &s.TotalCapacity, &s.ReservedCount); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return sections, nil
}

// CreateWithSections inserts the event and its sections, returning the new
// event ID. Section IDs are filled in on the passed slice.
func (r *EventRepo) CreateWithSections(ctx context.Context, e *domain.Event, sections []domain.Section) (int64, error) {
	const op = "postgres.EventRepo.CreateWithSections"

	db := r.handle()

	err := db.QueryRow(ctx,
		`INSERT INTO events (name, venue, starts_at, ends_at, published)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id`,
		e.Name, e.Venue, e.StartsAt, e.EndsAt, e.Published,
	).Scan(&e.ID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	for i := range sections {
		sections[i].EventID = e.ID
		err := db.QueryRow(ctx,
			`INSERT INTO sections (event_id, name, unit_price_cents, total_capacity)
             VALUES ($1, $2, $3, $4)
             RETURNING id`,
			e.ID, sections[i].Name, sections[i].UnitPriceCents, sections[i].TotalCapacity,
		).Scan(&sections[i].ID)
		if err != nil {
			return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
	}

	return e.ID, nil
}
