package ticketing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	edomain "github.com/Brayan1299/Restaurante-Api/internal/domain/events"
	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

type EventsRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*edomain.Event, error)
	Reserve(ctx context.Context, eventID uuid.UUID, quantity int) error
	Release(ctx context.Context, eventID uuid.UUID, quantity int) error
}

type TicketsRepo interface {
	CreatePending(ctx context.Context, eventID, ownerID uuid.UUID, quantity int, totalPrice decimal.Decimal) (*tdomain.Ticket, error)
	Transition(ctx context.Context, code string, from []tdomain.State, to tdomain.State) (*tdomain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]tdomain.Ticket, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]tdomain.Ticket, error)
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoWithSettings(ctx context.Context, s trm.Settings, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// EventPublisherFactory yields a publisher bound to the transaction in ctx,
// so domain events commit together with the rows they describe.
type EventPublisherFactory func(ctx context.Context) (EventPublisher, error)

type TicketingUsecase struct {
	events      EventsRepo
	tickets     TicketsRepo
	trManager   TxManager
	publisherIn EventPublisherFactory
}

func NewTicketingUsecase(
	events EventsRepo,
	tickets TicketsRepo,
	trManager TxManager,
	publisherIn EventPublisherFactory,
) *TicketingUsecase {
	return &TicketingUsecase{
		events:      events,
		tickets:     tickets,
		trManager:   trManager,
		publisherIn: publisherIn,
	}
}

const txAttempts = 3

// WithRetry re-runs fn on postgres serialization failures (40001), bounded.
// Business refusals pass through untouched: retrying a denied reservation or
// an invalid transition cannot change the outcome.
func WithRetry(attempts int, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var lastErr error
		for i := 0; i < attempts; i++ {
			err := fn(ctx)
			if err == nil {
				return nil
			}

			pgErr := &pq.Error{}
			if errors.As(err, &pgErr) && pgErr.Code == "40001" {
				observability.FromContext(ctx).
					WithField("attempt", i+1).
					Warn("serialization failure, retrying transaction")
				lastErr = err
				continue
			}

			return err
		}
		return lastErr
	}
}

func serializable() trm.Settings {
	return trmsql.MustSettings(
		settings.Must(settings.WithCancelable(true)),
		trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable}),
	)
}

type PurchaseRequest struct {
	EventID  uuid.UUID
	OwnerID  uuid.UUID
	Quantity int
	// UnitPrice overrides the event's price when set; zero means "use the
	// event's advertised price".
	UnitPrice decimal.Decimal
}

// Purchase reserves capacity and creates the pending ticket as one
// failure-atomic unit: if anything after the reservation fails, the rollback
// returns the reserved quantity.
func (u *TicketingUsecase) Purchase(ctx context.Context, req PurchaseRequest) (*tdomain.Ticket, error) {
	if req.Quantity < 1 {
		return nil, tdomain.ErrInvalidQuantity
	}

	var ticket *tdomain.Ticket

	err := WithRetry(txAttempts, func(ctx context.Context) error {
		return u.trManager.DoWithSettings(ctx, serializable(), func(ctx context.Context) error {
			event, err := u.events.GetByID(ctx, req.EventID)
			if err != nil {
				return err
			}

			if err := u.events.Reserve(ctx, req.EventID, req.Quantity); err != nil {
				return err
			}

			unitPrice := req.UnitPrice
			if unitPrice.IsZero() {
				unitPrice = event.UnitPrice
			}
			totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))

			ticket, err = u.tickets.CreatePending(ctx, req.EventID, req.OwnerID, req.Quantity, totalPrice)
			if err != nil {
				return fmt.Errorf("failed to create pending ticket: %w", err)
			}

			publisher, err := u.publisherIn(ctx)
			if err != nil {
				return err
			}
			return publisher.Publish(ctx, tdomain.TicketCreated_v1{
				Header:     tdomain.NewEventHeader(),
				Code:       ticket.Code,
				EventID:    ticket.EventID,
				OwnerID:    ticket.OwnerID,
				Quantity:   ticket.Quantity,
				TotalPrice: ticket.TotalPrice,
			})
		})
	})(ctx)

	if errors.Is(err, edomain.ErrCapacityExceeded) {
		observability.TrackCapacityRejection()
	}
	if err != nil {
		return nil, err
	}

	observability.TrackTicketIssued()
	return ticket, nil
}

// Cancel ends a pending or paid ticket and gives its quantity back to the
// event, exactly once: the guarded transition is what makes a second cancel
// (or a racing payment rejection) a no-op.
func (u *TicketingUsecase) Cancel(ctx context.Context, code, reason string) (*tdomain.Ticket, error) {
	var ticket *tdomain.Ticket

	err := WithRetry(txAttempts, func(ctx context.Context) error {
		return u.trManager.DoWithSettings(ctx, serializable(), func(ctx context.Context) error {
			var err error
			ticket, err = u.tickets.Transition(ctx, code,
				[]tdomain.State{tdomain.StatePending, tdomain.StatePaid},
				tdomain.StateCancelled,
			)
			if err != nil {
				return err
			}

			if err := u.events.Release(ctx, ticket.EventID, ticket.Quantity); err != nil {
				return err
			}

			publisher, err := u.publisherIn(ctx)
			if err != nil {
				return err
			}
			return publisher.Publish(ctx, tdomain.TicketCancelled_v1{
				Header:   tdomain.NewEventHeader(),
				Code:     ticket.Code,
				EventID:  ticket.EventID,
				OwnerID:  ticket.OwnerID,
				Quantity: ticket.Quantity,
				Reason:   reason,
			})
		})
	})(ctx)
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (u *TicketingUsecase) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]tdomain.Ticket, error) {
	if offset < 0 {
		offset = 0
	}
	return u.tickets.ListByOwner(ctx, ownerID, clampLimit(limit), offset)
}

func (u *TicketingUsecase) ListByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]tdomain.Ticket, error) {
	if offset < 0 {
		offset = 0
	}
	return u.tickets.ListByEvent(ctx, eventID, clampLimit(limit), offset)
}
