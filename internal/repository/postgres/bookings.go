package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// serializable transactions can abort under contention; retried a few times
// before the failure surfaces
const serializableAttempts = 3

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CreateWithHold reserves capacity for every selected ticket and persists the
// pending booking in a single serializable transaction. If any section cannot
// satisfy its quantity the transaction rolls back, so no partial hold ever
// survives.
//
// Returns:
//   - error: *repository.InsufficientCapacityError naming the offending
//     section and its remaining availability.
//   - error: repository.ErrNotFound if the event or a section does not exist.
func (r *BookingRepo) CreateWithHold(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.CreateWithHold"

	if r.db != nil {
		if err := r.createWithHoldCore(ctx, r.db, b); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		return nil
	}

	var err error
	for attempt := 0; attempt < serializableAttempts; attempt++ {
		err = r.createWithHoldTx(ctx, b)
		if err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *BookingRepo) createWithHoldTx(ctx context.Context, b *domain.Booking) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return translateDBErr(err)
	}

	defer tx.Rollback(ctx)

	if err := r.createWithHoldCore(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return translateDBErr(err)
	}

	return nil
}

func (r *BookingRepo) createWithHoldCore(ctx context.Context, db DB, b *domain.Booking) error {
	inv := (&InventoryRepo{pool: r.pool}).With(db)

	for _, t := range b.Tickets {
		if err := inv.TryReserve(ctx, t.SectionID, t.Quantity); err != nil {
			return err
		}
	}

	err := db.QueryRow(ctx,
		`INSERT INTO bookings (
            id, event_id, customer_name, customer_email, customer_phone,
            total_cents, status, hold_expires_at, discount_code
         )
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING created_at, updated_at`,
		b.ID, b.EventID, b.Customer.Name, b.Customer.Email, b.Customer.Phone,
		b.TotalCents, b.Status, b.HoldExpiresAt, b.DiscountCode,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return translateDBErr(err)
	}

	batch := &pgx.Batch{}
	for _, t := range b.Tickets {
		batch.Queue(
			`INSERT INTO booking_tickets (booking_id, section_id, quantity, unit_price_cents)
             VALUES ($1, $2, $3, $4)`,
			b.ID, t.SectionID, t.Quantity, t.UnitPriceCents,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return translateDBErr(err)
	}

	return nil
}

// Get returns the booking with its selected tickets.
func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	db := r.handle()

	b, err := scanBooking(db.QueryRow(ctx,
		`SELECT id, event_id, customer_name, customer_email, customer_phone,
                total_cents, status, hold_expires_at, discount_code,
                COALESCE(payment_reference, ''), created_at, updated_at
           FROM bookings WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	rows, err := db.Query(ctx,
		`SELECT section_id, quantity, unit_price_cents
           FROM booking_tickets WHERE booking_id = $1
          ORDER BY section_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	for rows.Next() {
		var t domain.SelectedTicket
		if err := rows.Scan(&t.SectionID, &t.Quantity, &t.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		b.Tickets = append(b.Tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b, nil
}

// ConfirmPayment flips a pending booking to confirmed, attaches the payment
// reference and commits the discount usage, all in one transaction. The
// status update is guarded on the prior value, so exactly one of a concurrent
// verification and an expiry sweep can win. A booking past its deadline but
// not yet swept is still confirmable: the first transition wins, there is no
// separate grace-period rule.
//
// Returns:
//   - error: repository.ErrNotFound if the booking does not exist.
//   - error: repository.ErrAlreadyFinalized if the booking is not pending.
//   - error: repository.ErrDuplicateReference if the reference is already
//     attached to another booking.
//   - error: repository.ErrDiscountExhausted if the applied discount has no
//     uses left at confirmation time.
func (r *BookingRepo) ConfirmPayment(ctx context.Context, id uuid.UUID, reference string) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.ConfirmPayment"

	if r.db != nil {
		b, err := r.confirmPaymentCore(ctx, r.db, id, reference)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return b, nil
	}

	var b *domain.Booking
	var err error
	for attempt := 0; attempt < serializableAttempts; attempt++ {
		b, err = r.confirmPaymentTx(ctx, id, reference)
		if err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

func (r *BookingRepo) confirmPaymentTx(ctx context.Context, id uuid.UUID, reference string) (*domain.Booking, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, translateDBErr(err)
	}

	defer tx.Rollback(ctx)

	b, err := r.confirmPaymentCore(ctx, tx, id, reference)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translateDBErr(err)
	}

	return b, nil
}

func (r *BookingRepo) confirmPaymentCore(ctx context.Context, db DB, id uuid.UUID, reference string) (*domain.Booking, error) {
	var status domain.BookingStatus
	var discountCode string

	err := db.QueryRow(ctx,
		`SELECT status, discount_code FROM bookings WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&status, &discountCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, translateDBErr(err)
	}

	if status != domain.BookingPending {
		return nil, repository.ErrAlreadyFinalized
	}

	_, err = db.Exec(ctx,
		`UPDATE bookings
            SET status = $2, payment_reference = $3, hold_expires_at = NULL,
                updated_at = now()
          WHERE id = $1 AND status = $4`,
		id, domain.BookingConfirmed, reference, domain.BookingPending,
	)
	if err != nil {
		if errors.Is(translateDBErr(err), repository.ErrConflict) {
			return nil, repository.ErrDuplicateReference
		}
		return nil, translateDBErr(err)
	}

	if discountCode != "" {
		tag, err := db.Exec(ctx,
			`UPDATE discount_codes
                SET used_count = used_count + 1
              WHERE code = $1 AND (max_uses = 0 OR used_count < max_uses)`,
			discountCode,
		)
		if err != nil {
			return nil, translateDBErr(err)
		}
		if tag.RowsAffected() == 0 {
			return nil, repository.ErrDiscountExhausted
		}
	}

	return r.With(db).Get(ctx, id)
}

// Cancel transitions a pending booking to cancelled and releases its reserved
// quantities back to the ledger.
//
// Returns:
//   - int64: total quantity released.
//   - int64: the booking's event ID.
//   - []int64: sections whose release clamped at zero (ledger anomaly).
//   - error: repository.ErrNotFound / repository.ErrAlreadyFinalized.
func (r *BookingRepo) Cancel(ctx context.Context, id uuid.UUID) (int64, int64, []int64, error) {
	const op = "postgres.BookingRepo.Cancel"

	var released, eventID int64
	var clamped []int64

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE bookings
            SET status = $2, hold_expires_at = NULL, updated_at = now()
          WHERE id = $1 AND status = $3
          RETURNING event_id`,
		id, domain.BookingCancelled, domain.BookingPending,
	).Scan(&eventID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return 0, 0, nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		if exists {
			return 0, 0, nil, fmt.Errorf("%s:%w", op, repository.ErrAlreadyFinalized)
		}
		return 0, 0, nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	released, clamped, err = releaseBookingTickets(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return released, eventID, clamped, nil
}

// ExpireDue transitions every pending booking past its deadline to expired
// and returns its quantities to the ledger. The pass is idempotent: bookings
// already expired are not selected, and the release is clamped at zero, so a
// rerun after a partial failure cannot corrupt the counters.
func (r *BookingRepo) ExpireDue(ctx context.Context, now time.Time) (domain.SweepResult, error) {
	const op = "postgres.BookingRepo.ExpireDue"

	var res domain.SweepResult

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return res, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`UPDATE bookings
            SET status = $2, updated_at = now()
          WHERE status = $3 AND hold_expires_at <= $1
          RETURNING id, event_id`,
		now, domain.BookingExpired, domain.BookingPending,
	)
	if err != nil {
		return res, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var ids []uuid.UUID
	seen := make(map[int64]struct{})
	for rows.Next() {
		var id uuid.UUID
		var eventID int64
		if err := rows.Scan(&id, &eventID); err != nil {
			rows.Close()
			return res, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		ids = append(ids, id)
		if _, ok := seen[eventID]; !ok {
			seen[eventID] = struct{}{}
			res.EventIDs = append(res.EventIDs, eventID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if len(ids) == 0 {
		return res, nil
	}

	res.ExpiredCount = int64(len(ids))

	res.InventoryReleased, res.ClampedSections, err = releaseBookingTickets(ctx, tx, ids)
	if err != nil {
		return domain.SweepResult{}, fmt.Errorf("%s:%w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.SweepResult{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return res, nil
}

func releaseBookingTickets(ctx context.Context, db DB, bookingIDs []uuid.UUID) (int64, []int64, error) {
	rows, err := db.Query(ctx,
		`SELECT section_id, SUM(quantity)
           FROM booking_tickets
          WHERE booking_id = ANY($1)
          GROUP BY section_id`,
		bookingIDs,
	)
	if err != nil {
		return 0, nil, translateDBErr(err)
	}

	defer rows.Close()

	type sectionQty struct {
		sectionID int64
		qty       int64
	}

	var total int64
	var qtys []sectionQty
	for rows.Next() {
		var sq sectionQty
		if err := rows.Scan(&sq.sectionID, &sq.qty); err != nil {
			return 0, nil, translateDBErr(err)
		}
		qtys = append(qtys, sq)
		total += sq.qty
	}
	if err := rows.Err(); err != nil {
		return 0, nil, translateDBErr(err)
	}

	inv := (&InventoryRepo{}).With(db)
	var clamped []int64
	for _, sq := range qtys {
		// a clamp here means a double release slipped past the status CAS
		hitFloor, err := inv.Release(ctx, sq.sectionID, int32(sq.qty))
		if err != nil {
			return 0, nil, err
		}
		if hitFloor {
			clamped = append(clamped, sq.sectionID)
		}
	}

	return total, clamped, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.EventID, &b.Customer.Name, &b.Customer.Email, &b.Customer.Phone,
		&b.TotalCents, &b.Status, &b.HoldExpiresAt, &b.DiscountCode,
		&b.PaymentReference, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
