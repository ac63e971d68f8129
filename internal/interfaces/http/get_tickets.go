package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (s *Server) GetOwnerTicketsHandler(c echo.Context) error {
	ownerID, err := uuid.Parse(c.QueryParam("owner_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "owner_id is required"})
	}

	limit, offset := pagination(c)
	tickets, err := s.ticketing.ListByOwner(c.Request().Context(), ownerID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tickets)
}

func (s *Server) GetEventTicketsHandler(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("eventID"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid event id"})
	}

	limit, offset := pagination(c)
	tickets, err := s.ticketing.ListByEvent(c.Request().Context(), eventID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, tickets)
}

func pagination(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}
