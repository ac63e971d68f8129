package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

type PaymentWebhookRequest struct {
	PaymentReference string `json:"payment_reference"`
	TicketCode       string `json:"ticket_code"`
	Status           string `json:"status"`
}

// PaymentWebhookHandler receives the gateway's asynchronous verdicts. It only
// authenticates and translates; the work happens in the confirmation service
// behind the bus, where redelivery is already handled. The 200 response tells
// the gateway to stop retrying.
func (s *Server) PaymentWebhookHandler(c echo.Context) error {
	ctx := c.Request().Context()

	if s.webhookSecret != "" {
		secret := c.Request().Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(s.webhookSecret)) != 1 {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid webhook secret"})
		}
	}

	var request PaymentWebhookRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.PaymentReference == "" || request.TicketCode == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "payment_reference and ticket_code are required"})
	}

	var outcome tdomain.PaymentOutcome
	switch request.Status {
	case "approved", "confirmed":
		outcome = tdomain.PaymentConfirmed
	case "rejected", "declined":
		outcome = tdomain.PaymentRejected
	default:
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown payment status"})
	}

	err := s.eventBus.Publish(ctx, tdomain.PaymentResultReceived_v1{
		Header:           tdomain.NewEventHeaderWithIdempotencyKey(request.PaymentReference + ":" + request.TicketCode),
		PaymentReference: request.PaymentReference,
		Code:             request.TicketCode,
		Outcome:          outcome,
	})
	if err != nil {
		return err
	}

	observability.FromContext(ctx).
		WithField("ticket_code", request.TicketCode).
		WithField("outcome", outcome).
		Info("Accepted payment gateway notification")

	return c.NoContent(http.StatusOK)
}
