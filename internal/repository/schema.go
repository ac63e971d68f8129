package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDBSchema(db *sqlx.DB) error {
	_, err := db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name VARCHAR(255) NOT NULL,
	venue VARCHAR(255) NOT NULL,
	starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
	unit_price NUMERIC(10, 2) NOT NULL,
	capacity INTEGER NOT NULL CHECK (capacity >= 0),
	sold INTEGER NOT NULL DEFAULT 0 CHECK (sold >= 0 AND sold <= capacity),
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS tickets (
	code VARCHAR(40) PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events (id),
	owner_id UUID NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity >= 1),
	total_price NUMERIC(10, 2) NOT NULL CHECK (total_price >= 0),
	state VARCHAR(16) NOT NULL CHECK (state IN ('pending', 'paid', 'used', 'cancelled')),
	payment_reference VARCHAR(255),
	used_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS tickets_owner_idx ON tickets (owner_id, created_at);
CREATE INDEX IF NOT EXISTS tickets_event_idx ON tickets (event_id, created_at);
CREATE INDEX IF NOT EXISTS tickets_pending_idx ON tickets (created_at) WHERE state = 'pending';`)
	if err != nil {
		return fmt.Errorf("failed to create tickets table: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS processed_payment_notifications (
	payment_reference VARCHAR(255) NOT NULL,
	ticket_code VARCHAR(40) NOT NULL,
	outcome VARCHAR(16) NOT NULL,
	processed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	PRIMARY KEY (payment_reference, ticket_code)
);`)
	if err != nil {
		return fmt.Errorf("failed to create processed_payment_notifications table: %w", err)
	}
	return nil
}
