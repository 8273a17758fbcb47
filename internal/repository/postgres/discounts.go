package postgres

import (
	"context"
	"fmt"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DiscountRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *DiscountRepo) With(db DB) *DiscountRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *DiscountRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *DiscountRepo) GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	const op = "postgres.DiscountRepo.GetByCode"

	db := r.handle()

	var dc domain.DiscountCode
	err := db.QueryRow(ctx,
		`SELECT code, kind, value, valid_from, valid_till, max_uses, used_count,
                event_ids, active
           FROM discount_codes WHERE code = $1`,
		code,
	).Scan(
		&dc.Code, &dc.Type, &dc.Value, &dc.ValidFrom, &dc.ValidTill,
		&dc.MaxUses, &dc.UsedCount, &dc.EventIDs, &dc.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &dc, nil
}

// Create inserts a discount code.
//
// Returns:
//   - error: repository.ErrConflict if the code already exists.
func (r *DiscountRepo) Create(ctx context.Context, dc *domain.DiscountCode) error {
	const op = "postgres.DiscountRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO discount_codes (code, kind, value, valid_from, valid_till, max_uses, event_ids, active)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		dc.Code, dc.Type, dc.Value, dc.ValidFrom, dc.ValidTill,
		dc.MaxUses, dc.EventIDs, dc.Active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// SetActive toggles a code. Deactivation is how exhausted or mispublished
// codes are pulled without deleting usage history.
func (r *DiscountRepo) SetActive(ctx context.Context, code string, active bool) error {
	const op = "postgres.DiscountRepo.SetActive"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE discount_codes SET active = $2 WHERE code = $1`,
		code, active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
