package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	edomain "github.com/Brayan1299/Restaurante-Api/internal/domain/events"
	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
)

type EventsRepo interface {
	Create(ctx context.Context, event *edomain.Event) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*edomain.Event, error)
}

type TicketStatsRepo interface {
	StatsByEvent(ctx context.Context, eventID uuid.UUID) (*tdomain.EventStats, error)
}

type EventsUsecase struct {
	events EventsRepo
	stats  TicketStatsRepo
}

func NewEventsUsecase(events EventsRepo, stats TicketStatsRepo) *EventsUsecase {
	return &EventsUsecase{events: events, stats: stats}
}

type CreateEventRequest struct {
	Name      string
	Venue     string
	StartsAt  time.Time
	UnitPrice decimal.Decimal
	Capacity  int
	Active    bool
}

func (u *EventsUsecase) Create(ctx context.Context, req CreateEventRequest) (*edomain.Event, error) {
	event := &edomain.Event{
		Name:      req.Name,
		Venue:     req.Venue,
		StartsAt:  req.StartsAt,
		UnitPrice: req.UnitPrice,
		Capacity:  req.Capacity,
		Active:    req.Active,
	}

	id, err := u.events.Create(ctx, event)
	if err != nil {
		return nil, err
	}

	return u.events.GetByID(ctx, id)
}

func (u *EventsUsecase) Get(ctx context.Context, id uuid.UUID) (*edomain.Event, error) {
	return u.events.GetByID(ctx, id)
}

// Stats reports ticket counts, reserved quantities and revenue for an event.
// Revenue only counts paid and used tickets.
func (u *EventsUsecase) Stats(ctx context.Context, id uuid.UUID) (*tdomain.EventStats, error) {
	if _, err := u.events.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return u.stats.StatsByEvent(ctx, id)
}
