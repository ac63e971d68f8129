package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

type TicketsRepo interface {
	Transition(ctx context.Context, code string, from []tdomain.State, to tdomain.State) (*tdomain.Ticket, error)
	SetPaymentReference(ctx context.Context, code, reference string) error
}

type EventsRepo interface {
	Release(ctx context.Context, eventID uuid.UUID, quantity int) error
}

type NotificationsRepo interface {
	Record(ctx context.Context, paymentReference, ticketCode, outcome string) (bool, error)
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type EventPublisherFactory func(ctx context.Context) (EventPublisher, error)

// ConfirmationService reconciles the payment gateway's verdicts with reserved
// tickets. The gateway redelivers and reorders freely; the idempotency record
// and the guarded transition together make every path safe to replay.
type ConfirmationService struct {
	tickets       TicketsRepo
	events        EventsRepo
	notifications NotificationsRepo
	trManager     TxManager
	publisherIn   EventPublisherFactory
}

func NewConfirmationService(
	tickets TicketsRepo,
	events EventsRepo,
	notifications NotificationsRepo,
	trManager TxManager,
	publisherIn EventPublisherFactory,
) *ConfirmationService {
	return &ConfirmationService{
		tickets:       tickets,
		events:        events,
		notifications: notifications,
		trManager:     trManager,
		publisherIn:   publisherIn,
	}
}

func (s *ConfirmationService) OnPaymentResult(ctx context.Context, result *tdomain.PaymentResultReceived_v1) error {
	log := observability.FromContext(ctx).
		WithField("ticket_code", result.Code).
		WithField("payment_reference", result.PaymentReference)

	if result.Outcome != tdomain.PaymentConfirmed && result.Outcome != tdomain.PaymentRejected {
		log.WithField("outcome", result.Outcome).Warn("Unknown payment outcome, dropping")
		return nil
	}

	return s.trManager.Do(ctx, func(ctx context.Context) error {
		fresh, err := s.notifications.Record(ctx, result.PaymentReference, result.Code, string(result.Outcome))
		if err != nil {
			return err
		}
		if !fresh {
			observability.TrackDuplicatePaymentNotification()
			log.Info("Duplicate payment notification, ignoring")
			return nil
		}

		switch result.Outcome {
		case tdomain.PaymentConfirmed:
			err = s.confirm(ctx, result)
		case tdomain.PaymentRejected:
			err = s.reject(ctx, result)
		}
		if err != nil {
			return err
		}

		observability.TrackPaymentNotification(string(result.Outcome))
		return nil
	})
}

func (s *ConfirmationService) confirm(ctx context.Context, result *tdomain.PaymentResultReceived_v1) error {
	ticket, err := s.tickets.Transition(ctx, result.Code,
		[]tdomain.State{tdomain.StatePending},
		tdomain.StatePaid,
	)
	if skip, err := s.skipStale(ctx, result, err); skip || err != nil {
		return err
	}

	if err := s.tickets.SetPaymentReference(ctx, result.Code, result.PaymentReference); err != nil {
		return err
	}

	publisher, err := s.publisherIn(ctx)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, tdomain.TicketPaid_v1{
		Header:           tdomain.NewEventHeaderWithIdempotencyKey(result.PaymentReference),
		Code:             ticket.Code,
		EventID:          ticket.EventID,
		OwnerID:          ticket.OwnerID,
		PaymentReference: result.PaymentReference,
	})
}

func (s *ConfirmationService) reject(ctx context.Context, result *tdomain.PaymentResultReceived_v1) error {
	ticket, err := s.tickets.Transition(ctx, result.Code,
		[]tdomain.State{tdomain.StatePending},
		tdomain.StateCancelled,
	)
	if skip, err := s.skipStale(ctx, result, err); skip || err != nil {
		return err
	}

	// The transition above is the only winner for this ticket, so the
	// release below runs at most once.
	if err := s.events.Release(ctx, ticket.EventID, ticket.Quantity); err != nil {
		return err
	}

	observability.TrackTicketCancelled("payment_rejected")

	publisher, err := s.publisherIn(ctx)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, tdomain.TicketCancelled_v1{
		Header:   tdomain.NewEventHeaderWithIdempotencyKey(result.PaymentReference),
		Code:     ticket.Code,
		EventID:  ticket.EventID,
		OwnerID:  ticket.OwnerID,
		Quantity: ticket.Quantity,
		Reason:   "payment rejected",
	})
}

// skipStale decides what to do when the guarded transition refused: a ticket
// that already left pending means this result arrived late or twice, which
// the contract treats as success. An unknown code is logged and acked; the
// gateway retrying an unknown code forever would change nothing.
func (s *ConfirmationService) skipStale(ctx context.Context, result *tdomain.PaymentResultReceived_v1, err error) (bool, error) {
	if err == nil {
		return false, nil
	}

	log := observability.FromContext(ctx).
		WithField("ticket_code", result.Code).
		WithField("payment_reference", result.PaymentReference)

	var invalid *tdomain.InvalidTransitionError
	if errors.As(err, &invalid) {
		log.WithField("state", invalid.Current).
			Info("Ticket already left pending, treating payment result as applied")
		return true, nil
	}
	if errors.Is(err, tdomain.ErrTicketNotFound) {
		log.Warn("Payment result for unknown ticket code")
		return true, nil
	}

	return false, fmt.Errorf("failed to apply payment result: %w", err)
}
