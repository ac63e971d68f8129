package tickets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type TicketCreated_v1 struct {
	Header     EventHeader     `json:"header"`
	Code       string          `json:"code"`
	EventID    uuid.UUID       `json:"event_id"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type TicketPaid_v1 struct {
	Header           EventHeader `json:"header"`
	Code             string      `json:"code"`
	EventID          uuid.UUID   `json:"event_id"`
	OwnerID          uuid.UUID   `json:"owner_id"`
	PaymentReference string      `json:"payment_reference"`
}

type TicketCancelled_v1 struct {
	Header   EventHeader `json:"header"`
	Code     string      `json:"code"`
	EventID  uuid.UUID   `json:"event_id"`
	OwnerID  uuid.UUID   `json:"owner_id"`
	Quantity int         `json:"quantity"`
	Reason   string      `json:"reason"`
}

type TicketRedeemed_v1 struct {
	Header   EventHeader `json:"header"`
	Code     string      `json:"code"`
	EventID  uuid.UUID   `json:"event_id"`
	OwnerID  uuid.UUID   `json:"owner_id"`
	Quantity int         `json:"quantity"`
	UsedAt   time.Time   `json:"used_at"`
}

type PaymentOutcome string

const (
	PaymentConfirmed PaymentOutcome = "confirmed"
	PaymentRejected  PaymentOutcome = "rejected"
)

// PaymentResultReceived_v1 is the inbound message the payment gateway's
// webhook is translated into. The gateway delivers at-least-once and possibly
// out of order; (PaymentReference, Code) is the idempotency key.
type PaymentResultReceived_v1 struct {
	Header           EventHeader    `json:"header"`
	PaymentReference string         `json:"payment_reference"`
	Code             string         `json:"code"`
	Outcome          PaymentOutcome `json:"outcome"`
}
