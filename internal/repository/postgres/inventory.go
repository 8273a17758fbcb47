package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatepass/gatepass/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryRepo is the single writer of per-section capacity counters.
// All mutations are conditional updates, never read-then-write.
type InventoryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *InventoryRepo) With(db DB) *InventoryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *InventoryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// TryReserve atomically increments the section's reserved count, succeeding
// only if enough capacity remains at the moment of the update.
//
// Returns:
//   - error: *repository.InsufficientCapacityError (matching
//     repository.ErrInsufficientCapacity) with the remaining availability.
//   - error: repository.ErrNotFound if the section does not exist.
func (r *InventoryRepo) TryReserve(ctx context.Context, sectionID int64, quantity int32) error {
	const op = "postgres.InventoryRepo.TryReserve"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE sections
            SET reserved_count = reserved_count + $2
          WHERE id = $1
            AND total_capacity - reserved_count >= $2`,
		sectionID, quantity,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var available int32
	err = db.QueryRow(ctx,
		`SELECT total_capacity - reserved_count FROM sections WHERE id = $1`,
		sectionID,
	).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return fmt.Errorf("%s:%w", op, &repository.InsufficientCapacityError{
		SectionID: sectionID,
		Available: available,
	})
}

// Release returns quantity back to the section. It is idempotent: an
// over-release clamps reserved_count at zero instead of driving it negative,
// and reports the clamp so the caller can log the anomaly.
func (r *InventoryRepo) Release(ctx context.Context, sectionID int64, quantity int32) (clamped bool, err error) {
	const op = "postgres.InventoryRepo.Release"

	db := r.handle()

	err = db.QueryRow(ctx,
		`WITH prev AS (
            SELECT reserved_count FROM sections WHERE id = $1 FOR UPDATE
         )
         UPDATE sections
            SET reserved_count = GREATEST(reserved_count - $2, 0)
          WHERE id = $1
          RETURNING (SELECT reserved_count FROM prev) < $2`,
		sectionID, quantity,
	).Scan(&clamped)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return clamped, nil
}

// AdjustCapacity applies a capacity delta to a section, refusing changes that
// would take total_capacity below the currently reserved count. Returns the
// new total and the owning event.
func (r *InventoryRepo) AdjustCapacity(ctx context.Context, sectionID int64, delta int32) (int32, int64, error) {
	const op = "postgres.InventoryRepo.AdjustCapacity"

	db := r.handle()

	var total int32
	var eventID int64
	err := db.QueryRow(ctx,
		`UPDATE sections
            SET total_capacity = total_capacity + $2
          WHERE id = $1
            AND total_capacity + $2 >= reserved_count
          RETURNING total_capacity, event_id`,
		sectionID, delta,
	).Scan(&total, &eventID)
	if err == nil {
		return total, eventID, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	// Either the section is missing or the delta undercuts active holds.
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sections WHERE id = $1)`, sectionID,
	).Scan(&exists); err != nil {
		return 0, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if !exists {
		return 0, 0, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return 0, 0, fmt.Errorf("%s:%w", op, repository.ErrCapacityBelowHeld)
}
