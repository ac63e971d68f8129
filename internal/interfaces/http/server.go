package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Brayan1299/Restaurante-Api/internal/application/usecases/events"
	"github.com/Brayan1299/Restaurante-Api/internal/application/usecases/ticketing"
	edomain "github.com/Brayan1299/Restaurante-Api/internal/domain/events"
	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

type TicketingService interface {
	Purchase(ctx context.Context, req ticketing.PurchaseRequest) (*tdomain.Ticket, error)
	Cancel(ctx context.Context, code, reason string) (*tdomain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]tdomain.Ticket, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]tdomain.Ticket, error)
}

type RedemptionService interface {
	Validate(ctx context.Context, code string) (*tdomain.Summary, error)
	Redeem(ctx context.Context, code string) (*tdomain.RedemptionReceipt, error)
}

type EventsService interface {
	Create(ctx context.Context, req events.CreateEventRequest) (*edomain.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*edomain.Event, error)
	Stats(ctx context.Context, id uuid.UUID) (*tdomain.EventStats, error)
}

type QREncoder interface {
	Encode(ctx context.Context, code string) ([]byte, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type Server struct {
	e *echo.Echo

	addr          string
	ticketing     TicketingService
	redemption    RedemptionService
	events        EventsService
	qr            QREncoder
	eventBus      EventPublisher
	webhookSecret string
}

func NewServer(
	addr string,
	ticketingService TicketingService,
	redemptionService RedemptionService,
	eventsService EventsService,
	qr QREncoder,
	eventBus EventPublisher,
	webhookSecret string,
	routerIsRunning func() bool,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	srv := &Server{
		e:             e,
		addr:          addr,
		ticketing:     ticketingService,
		redemption:    redemptionService,
		events:        eventsService,
		qr:            qr,
		eventBus:      eventBus,
		webhookSecret: webhookSecret,
	}

	e.POST("/events", srv.CreateEventHandler)
	e.GET("/events/:eventID", srv.GetEventHandler)
	e.GET("/events/:eventID/stats", srv.EventStatsHandler)
	e.GET("/events/:eventID/tickets", srv.GetEventTicketsHandler)

	e.POST("/tickets", srv.PurchaseTicketHandler)
	e.GET("/tickets", srv.GetOwnerTicketsHandler)
	e.GET("/tickets/:code", srv.ValidateTicketHandler)
	e.GET("/tickets/:code/qr", srv.TicketQRHandler)
	e.POST("/tickets/:code/redeem", srv.RedeemTicketHandler)
	e.POST("/tickets/:code/cancel", srv.CancelTicketHandler)

	e.POST("/payments/webhook", srv.PaymentWebhookHandler)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})

	// request-scoped logger with correlation id
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			correlationID := c.Request().Header.Get("Correlation-Id")
			if correlationID == "" {
				correlationID = uuid.NewString()
			}

			ctx := observability.ContextWithCorrelationID(c.Request().Context(), correlationID)
			ctx = observability.ToContext(ctx, logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"path":           c.Request().URL.Path,
			}))
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			if err != nil {
				observability.FromContext(ctx).
					WithField("error", err).
					Error("Request handling error")
			}

			return err
		}
	})

	return srv
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError turns business refusals into stable status codes; anything
// unrecognized bubbles to echo as a 500.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, tdomain.ErrTicketNotFound), errors.Is(err, edomain.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, edomain.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, errorResponse{Error: "sold out"})
	case errors.Is(err, edomain.ErrEventInactive):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, tdomain.ErrAlreadyUsed),
		errors.Is(err, tdomain.ErrNotPayable),
		errors.Is(err, tdomain.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, tdomain.ErrInvalidQuantity):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		return err
	}
}
