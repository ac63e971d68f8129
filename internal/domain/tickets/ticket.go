package tickets

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type State string

const (
	StatePending   State = "pending"
	StatePaid      State = "paid"
	StateUsed      State = "used"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no transition may ever leave the state.
func (s State) Terminal() bool {
	return s == StateUsed || s == StateCancelled
}

var (
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidTransition = errors.New("invalid ticket state transition")
	ErrAlreadyUsed       = errors.New("ticket already used")
	ErrNotPayable        = errors.New("ticket is not in a redeemable state")
)

// InvalidTransitionError carries the state observed when a guarded
// transition was refused, so callers can tell "already used" apart from
// "never paid" without a second read.
type InvalidTransitionError struct {
	Code    string
	Current State
	To      State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("ticket %s: cannot transition from %s to %s", e.Code, e.Current, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type Ticket struct {
	Code             string          `json:"code"`
	EventID          uuid.UUID       `json:"event_id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	Quantity         int             `json:"quantity"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	State            State           `json:"state"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	UsedAt           *time.Time      `json:"used_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

const codePrefix = "TCK-"

// NewCode returns a fresh ticket code. Possession of the code is the only
// authorization needed to redeem, so it is a 128-bit random token, not a
// sequential id.
func NewCode() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate ticket code: %w", err)
	}
	return codePrefix + strings.ToUpper(hex.EncodeToString(raw)), nil
}

// Summary is the read-only view returned by the validation pre-check at the
// door; producing it never mutates the ticket.
type Summary struct {
	Code       string     `json:"code"`
	EventID    uuid.UUID  `json:"event_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Quantity   int        `json:"quantity"`
	State      State      `json:"state"`
	Redeemable bool       `json:"redeemable"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

func (t *Ticket) Summary() Summary {
	return Summary{
		Code:       t.Code,
		EventID:    t.EventID,
		OwnerID:    t.OwnerID,
		Quantity:   t.Quantity,
		State:      t.State,
		Redeemable: t.State == StatePaid,
		UsedAt:     t.UsedAt,
	}
}

// RedemptionReceipt is proof that a redemption attempt was the winning one.
type RedemptionReceipt struct {
	Code     string    `json:"code"`
	EventID  uuid.UUID `json:"event_id"`
	OwnerID  uuid.UUID `json:"owner_id"`
	Quantity int       `json:"quantity"`
	UsedAt   time.Time `json:"used_at"`
}

// EventStats aggregates one event's tickets per state.
type EventStats struct {
	EventID    uuid.UUID       `json:"event_id"`
	Tickets    map[State]int   `json:"tickets"`
	Quantities map[State]int   `json:"quantities"`
	Revenue    decimal.Decimal `json:"revenue"`
}
