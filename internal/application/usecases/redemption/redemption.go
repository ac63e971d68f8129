package redemption

import (
	"context"
	"errors"
	"fmt"

	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

type TicketsRepo interface {
	FindByCode(ctx context.Context, code string) (*tdomain.Ticket, error)
	Transition(ctx context.Context, code string, from []tdomain.State, to tdomain.State) (*tdomain.Ticket, error)
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type EventPublisherFactory func(ctx context.Context) (EventPublisher, error)

// RedemptionUsecase is the gate at the door. Redeem is the highest-contention
// operation in the system: duplicate scans and parallel gate terminals all
// funnel into one guarded transition, so exactly one attempt wins.
type RedemptionUsecase struct {
	tickets     TicketsRepo
	trManager   TxManager
	publisherIn EventPublisherFactory
}

func NewRedemptionUsecase(
	tickets TicketsRepo,
	trManager TxManager,
	publisherIn EventPublisherFactory,
) *RedemptionUsecase {
	return &RedemptionUsecase{
		tickets:     tickets,
		trManager:   trManager,
		publisherIn: publisherIn,
	}
}

// Validate is the staff pre-check before committing to redemption. It never
// mutates state.
func (u *RedemptionUsecase) Validate(ctx context.Context, code string) (*tdomain.Summary, error) {
	ticket, err := u.tickets.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	summary := ticket.Summary()
	return &summary, nil
}

// Redeem consumes a paid ticket exactly once. Losing attempts observe
// ErrAlreadyUsed (or ErrNotPayable when the ticket never reached paid).
func (u *RedemptionUsecase) Redeem(ctx context.Context, code string) (*tdomain.RedemptionReceipt, error) {
	var receipt *tdomain.RedemptionReceipt

	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		ticket, err := u.tickets.Transition(ctx, code,
			[]tdomain.State{tdomain.StatePaid},
			tdomain.StateUsed,
		)
		if err != nil {
			return mapTransitionError(code, err)
		}

		receipt = &tdomain.RedemptionReceipt{
			Code:     ticket.Code,
			EventID:  ticket.EventID,
			OwnerID:  ticket.OwnerID,
			Quantity: ticket.Quantity,
			UsedAt:   *ticket.UsedAt,
		}

		publisher, err := u.publisherIn(ctx)
		if err != nil {
			return err
		}
		return publisher.Publish(ctx, tdomain.TicketRedeemed_v1{
			Header:   tdomain.NewEventHeader(),
			Code:     ticket.Code,
			EventID:  ticket.EventID,
			OwnerID:  ticket.OwnerID,
			Quantity: ticket.Quantity,
			UsedAt:   receipt.UsedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	observability.TrackTicketRedeemed()
	return receipt, nil
}

func mapTransitionError(code string, err error) error {
	var invalid *tdomain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		return err
	}
	if invalid.Current == tdomain.StateUsed {
		return fmt.Errorf("ticket %s: %w", code, tdomain.ErrAlreadyUsed)
	}
	return fmt.Errorf("ticket %s in state %s: %w", code, invalid.Current, tdomain.ErrNotPayable)
}
