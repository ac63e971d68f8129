package events

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventInactive    = errors.New("event is not active")
	ErrCapacityExceeded = errors.New("not enough capacity left for event")
)

// Event is a ticketed happening hosted by a restaurant. The sold counter is
// authoritative: it is only ever changed through the capacity ledger's
// reserve/release primitives, never by reading and writing it back.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Venue     string          `json:"venue"`
	StartsAt  time.Time       `json:"starts_at"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Capacity  int             `json:"capacity"`
	Sold      int             `json:"sold"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e Event) Available() int {
	return e.Capacity - e.Sold
}
