package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	edomain "github.com/Brayan1299/Restaurante-Api/internal/domain/events"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

// EventsRepo is the capacity ledger. The sold counter is only ever moved by
// Reserve and Release, each a single conditional UPDATE, so two concurrent
// reservations can never jointly exceed capacity.
type EventsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewEventsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *EventsRepo {
	return &EventsRepo{db: db, getter: getter}
}

type eventRow struct {
	ID        uuid.UUID       `db:"id"`
	Name      string          `db:"name"`
	Venue     string          `db:"venue"`
	StartsAt  time.Time       `db:"starts_at"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Capacity  int             `db:"capacity"`
	Sold      int             `db:"sold"`
	Active    bool            `db:"active"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r eventRow) toDomain() *edomain.Event {
	return &edomain.Event{
		ID:        r.ID,
		Name:      r.Name,
		Venue:     r.Venue,
		StartsAt:  r.StartsAt,
		UnitPrice: r.UnitPrice,
		Capacity:  r.Capacity,
		Sold:      r.Sold,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
	}
}

func (r *EventsRepo) Create(ctx context.Context, event *edomain.Event) (uuid.UUID, error) {
	var id uuid.UUID

	query := `
		INSERT INTO events (
			name, venue, starts_at, unit_price, capacity, active
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING id`

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, query,
		event.Name,
		event.Venue,
		event.StartsAt,
		event.UnitPrice,
		event.Capacity,
		event.Active,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create event: %w", err)
	}

	return id, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id uuid.UUID) (*edomain.Event, error) {
	var row eventRow

	query := `
		SELECT id, name, venue, starts_at, unit_price, capacity, sold, active, created_at
		FROM events
		WHERE id = $1`

	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, edomain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return row.toDomain(), nil
}

// Reserve claims quantity units of the event's capacity. The check and the
// increment are one atomic statement; when it matches no row a follow-up read
// tells the caller which guard refused.
func (r *EventsRepo) Reserve(ctx context.Context, eventID uuid.UUID, quantity int) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE events
		SET sold = sold + $2
		WHERE id = $1 AND active AND sold + $2 <= capacity`,
		eventID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve capacity: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reserve result: %w", err)
	}
	if rows == 1 {
		return nil
	}

	event, err := r.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.Active {
		return edomain.ErrEventInactive
	}
	return fmt.Errorf("event %s: %d available, %d requested: %w",
		eventID, event.Available(), quantity, edomain.ErrCapacityExceeded)
}

// Release gives quantity units back. Sold should never go below zero; if a
// release would push it there the counter is clamped and the anomaly logged,
// since losing the signal would hide a double release elsewhere.
func (r *EventsRepo) Release(ctx context.Context, eventID uuid.UUID, quantity int) error {
	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	res, err := tr.ExecContext(ctx, `
		UPDATE events
		SET sold = sold - $2
		WHERE id = $1 AND sold >= $2`,
		eventID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to release capacity: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read release result: %w", err)
	}
	if rows == 1 {
		return nil
	}

	res, err = tr.ExecContext(ctx, `UPDATE events SET sold = 0 WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to clamp capacity: %w", err)
	}
	rows, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read clamp result: %w", err)
	}
	if rows == 0 {
		return edomain.ErrEventNotFound
	}

	observability.FromContext(ctx).
		WithField("event_id", eventID).
		WithField("quantity", quantity).
		Error("capacity release would underflow sold counter, clamped to zero")
	observability.TrackCapacityReleaseAnomaly()

	return nil
}
