package repository

import (
	"context"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"
)

// PaymentNotificationsRepo remembers which gateway notifications were already
// applied. The gateway delivers at-least-once, so every result is recorded
// under its (payment_reference, ticket_code) idempotency key before being
// acted on.
type PaymentNotificationsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewPaymentNotificationsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *PaymentNotificationsRepo {
	return &PaymentNotificationsRepo{db: db, getter: getter}
}

// Record returns false when the notification was seen before. The insert and
// the work done on its behalf share a transaction, so a rolled-back attempt
// leaves no record and the redelivery starts clean.
func (r *PaymentNotificationsRepo) Record(ctx context.Context, paymentReference, ticketCode, outcome string) (bool, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO processed_payment_notifications (payment_reference, ticket_code, outcome)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		paymentReference, ticketCode, outcome,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record payment notification: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read payment notification result: %w", err)
	}
	return rows == 1, nil
}
