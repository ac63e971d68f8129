package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ValidateTicketHandler is the staff pre-check at the door: read-only, safe
// to call any number of times.
func (s *Server) ValidateTicketHandler(c echo.Context) error {
	summary, err := s.redemption.Validate(c.Request().Context(), c.Param("code"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}

func (s *Server) RedeemTicketHandler(c echo.Context) error {
	receipt, err := s.redemption.Redeem(c.Request().Context(), c.Param("code"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, receipt)
}

func (s *Server) TicketQRHandler(c echo.Context) error {
	ctx := c.Request().Context()
	code := c.Param("code")

	// only render codes that actually exist
	if _, err := s.redemption.Validate(ctx, code); err != nil {
		return respondError(c, err)
	}

	image, err := s.qr.Encode(ctx, code)
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", image)
}
