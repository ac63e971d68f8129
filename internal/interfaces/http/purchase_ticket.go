package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Brayan1299/Restaurante-Api/internal/application/usecases/ticketing"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

type PurchaseTicketRequest struct {
	EventID  uuid.UUID `json:"event_id"`
	OwnerID  uuid.UUID `json:"owner_id"`
	Quantity int       `json:"quantity"`
	// UnitPrice is optional; when omitted the event's advertised price is
	// charged.
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (s *Server) PurchaseTicketHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request PurchaseTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.EventID == uuid.Nil || request.OwnerID == uuid.Nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "event_id and owner_id are required"})
	}

	ticket, err := s.ticketing.Purchase(ctx, ticketing.PurchaseRequest{
		EventID:   request.EventID,
		OwnerID:   request.OwnerID,
		Quantity:  request.Quantity,
		UnitPrice: request.UnitPrice,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, ticket)
}

type CancelTicketRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelTicketHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CancelTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Reason == "" {
		request.Reason = "requested by user"
	}

	ticket, err := s.ticketing.Cancel(ctx, c.Param("code"), request.Reason)
	if err != nil {
		return respondError(c, err)
	}

	observability.TrackTicketCancelled("user_request")
	return c.JSON(http.StatusOK, ticket)
}
