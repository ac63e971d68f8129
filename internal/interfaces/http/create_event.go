package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Brayan1299/Restaurante-Api/internal/application/usecases/events"
)

type CreateEventRequest struct {
	Name      string          `json:"name"`
	Venue     string          `json:"venue"`
	StartsAt  time.Time       `json:"starts_at"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Capacity  int             `json:"capacity"`
	Active    *bool           `json:"active"`
}

func (s *Server) CreateEventHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CreateEventRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Name == "" || request.Capacity < 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name is required and capacity must be >= 0"})
	}

	active := true
	if request.Active != nil {
		active = *request.Active
	}

	event, err := s.events.Create(ctx, events.CreateEventRequest{
		Name:      request.Name,
		Venue:     request.Venue,
		StartsAt:  request.StartsAt,
		UnitPrice: request.UnitPrice,
		Capacity:  request.Capacity,
		Active:    active,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, event)
}

func (s *Server) GetEventHandler(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid event id"})
	}

	event, err := s.events.Get(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, event)
}

func (s *Server) EventStatsHandler(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid event id"})
	}

	stats, err := s.events.Stats(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
