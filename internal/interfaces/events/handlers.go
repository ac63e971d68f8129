package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

type PaymentConfirmer interface {
	OnPaymentResult(ctx context.Context, result *tdomain.PaymentResultReceived_v1) error
}

type Notifier interface {
	Notify(ctx context.Context, ownerID uuid.UUID, message string) error
}

type ChargeRequester interface {
	RequestCharge(ctx context.Context, code string, ownerID uuid.UUID, amount decimal.Decimal) error
}

// PaymentResultHandler feeds gateway results into the confirmation service.
// Errors are returned so the router's retry middleware redelivers; the
// service itself is idempotent under redelivery.
func PaymentResultHandler(confirmer PaymentConfirmer) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"payment_result_handler",
		func(ctx context.Context, event *tdomain.PaymentResultReceived_v1) error {
			return confirmer.OnPaymentResult(ctx, event)
		},
	)
}

// RequestChargeHandler asks the payment gateway to collect for a freshly
// created ticket.
func RequestChargeHandler(gateway ChargeRequester) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"request_charge_handler",
		func(ctx context.Context, event *tdomain.TicketCreated_v1) error {
			return gateway.RequestCharge(ctx, event.Code, event.OwnerID, event.TotalPrice)
		},
	)
}

// Notification handlers are fire-and-forget: a failed delivery is logged and
// acked, never retried into the ticketing flow.
func NotifyTicketPaidHandler(notifier Notifier) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"notify_ticket_paid_handler",
		func(ctx context.Context, event *tdomain.TicketPaid_v1) error {
			notify(ctx, notifier, event.OwnerID,
				fmt.Sprintf("Your ticket %s is confirmed. See you there!", event.Code))
			return nil
		},
	)
}

func NotifyTicketCancelledHandler(notifier Notifier) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"notify_ticket_cancelled_handler",
		func(ctx context.Context, event *tdomain.TicketCancelled_v1) error {
			notify(ctx, notifier, event.OwnerID,
				fmt.Sprintf("Your ticket %s was cancelled (%s).", event.Code, event.Reason))
			return nil
		},
	)
}

func NotifyTicketRedeemedHandler(notifier Notifier) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"notify_ticket_redeemed_handler",
		func(ctx context.Context, event *tdomain.TicketRedeemed_v1) error {
			notify(ctx, notifier, event.OwnerID,
				fmt.Sprintf("Ticket %s was redeemed at the entrance.", event.Code))
			return nil
		},
	)
}

func notify(ctx context.Context, notifier Notifier, ownerID uuid.UUID, message string) {
	if err := notifier.Notify(ctx, ownerID, message); err != nil {
		observability.FromContext(ctx).
			WithField("owner_id", ownerID).
			WithField("error", err).
			Warn("Failed to deliver notification")
	}
}
