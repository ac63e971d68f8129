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
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
)

type TicketsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTicketsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketsRepo {
	return &TicketsRepo{db: db, getter: getter}
}

type ticketRow struct {
	Code             string          `db:"code"`
	EventID          uuid.UUID       `db:"event_id"`
	OwnerID          uuid.UUID       `db:"owner_id"`
	Quantity         int             `db:"quantity"`
	TotalPrice       decimal.Decimal `db:"total_price"`
	State            string          `db:"state"`
	PaymentReference sql.NullString  `db:"payment_reference"`
	UsedAt           sql.NullTime    `db:"used_at"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (r ticketRow) toDomain() *tdomain.Ticket {
	t := &tdomain.Ticket{
		Code:       r.Code,
		EventID:    r.EventID,
		OwnerID:    r.OwnerID,
		Quantity:   r.Quantity,
		TotalPrice: r.TotalPrice,
		State:      tdomain.State(r.State),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.PaymentReference.Valid {
		t.PaymentReference = r.PaymentReference.String
	}
	if r.UsedAt.Valid {
		usedAt := r.UsedAt.Time
		t.UsedAt = &usedAt
	}
	return t
}

const ticketColumns = `code, event_id, owner_id, quantity, total_price, state,
	payment_reference, used_at, created_at, updated_at`

// CreatePending persists a fresh ticket in pending state under a new random
// code. It must only be called after the capacity ledger accepted the
// reservation, inside the same transaction.
func (r *TicketsRepo) CreatePending(
	ctx context.Context,
	eventID, ownerID uuid.UUID,
	quantity int,
	totalPrice decimal.Decimal,
) (*tdomain.Ticket, error) {
	code, err := tdomain.NewCode()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO tickets (
			code, event_id, owner_id, quantity, total_price, state
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING ` + ticketColumns

	var row ticketRow
	err = sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query,
		code, eventID, ownerID, quantity, totalPrice, tdomain.StatePending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending ticket: %w", err)
	}

	return row.toDomain(), nil
}

// Transition is the single guarded state-change primitive: a compare-and-set
// on the ticket's state column. It fails without side effects when the ticket
// is not currently in one of the from states, and exactly one of any number
// of concurrent attempts on the same code can win.
func (r *TicketsRepo) Transition(
	ctx context.Context,
	code string,
	from []tdomain.State,
	to tdomain.State,
) (*tdomain.Ticket, error) {
	fromStates := make([]string, 0, len(from))
	for _, s := range from {
		fromStates = append(fromStates, string(s))
	}

	query := `
		UPDATE tickets
		SET state = $2,
		    used_at = CASE WHEN $2 = 'used' THEN now() ELSE used_at END,
		    updated_at = now()
		WHERE code = $1 AND state = ANY($3)
		RETURNING ` + ticketColumns

	var row ticketRow
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query,
		code, to, pq.Array(fromStates),
	)
	if err == nil {
		return row.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition ticket: %w", err)
	}

	current, err := r.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return nil, &tdomain.InvalidTransitionError{
		Code:    code,
		Current: current.State,
		To:      to,
	}
}

// SetPaymentReference records the gateway's reference on a ticket. State is
// untouched; only Transition changes state.
func (r *TicketsRepo) SetPaymentReference(ctx context.Context, code, reference string) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE tickets
		SET payment_reference = $2, updated_at = now()
		WHERE code = $1`,
		code, reference,
	)
	if err != nil {
		return fmt.Errorf("failed to set payment reference: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return tdomain.ErrTicketNotFound
	}
	return nil
}

func (r *TicketsRepo) FindByCode(ctx context.Context, code string) (*tdomain.Ticket, error) {
	var row ticketRow

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE code = $1`

	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tdomain.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	return row.toDomain(), nil
}

func (r *TicketsRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]tdomain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.list(ctx, query, ownerID, limit, offset)
}

func (r *TicketsRepo) ListByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]tdomain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.list(ctx, query, eventID, limit, offset)
}

// ListExpiredPending returns tickets still pending after the cutoff, oldest
// first, for the abandoned-purchase sweep.
func (r *TicketsRepo) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]tdomain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE state = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`

	return r.list(ctx, query, cutoff, limit)
}

func (r *TicketsRepo) list(ctx context.Context, query string, args ...any) ([]tdomain.Ticket, error) {
	var rows []ticketRow
	err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	tickets := make([]tdomain.Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, *row.toDomain())
	}
	return tickets, nil
}

func (r *TicketsRepo) StatsByEvent(ctx context.Context, eventID uuid.UUID) (*tdomain.EventStats, error) {
	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryxContext(ctx, `
		SELECT state, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_price), 0)
		FROM tickets
		WHERE event_id = $1
		GROUP BY state`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get event stats: %w", err)
	}
	defer rows.Close()

	stats := &tdomain.EventStats{
		EventID:    eventID,
		Tickets:    map[tdomain.State]int{},
		Quantities: map[tdomain.State]int{},
		Revenue:    decimal.Zero,
	}
	for rows.Next() {
		var (
			state    string
			count    int
			quantity int
			total    decimal.Decimal
		)
		if err := rows.Scan(&state, &count, &quantity, &total); err != nil {
			return nil, fmt.Errorf("failed to scan event stats: %w", err)
		}
		s := tdomain.State(state)
		stats.Tickets[s] = count
		stats.Quantities[s] = quantity
		if s == tdomain.StatePaid || s == tdomain.StateUsed {
			stats.Revenue = stats.Revenue.Add(total)
		}
	}
	return stats, rows.Err()
}
