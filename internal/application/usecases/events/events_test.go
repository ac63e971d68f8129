package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brayan1299/Restaurante-Api/internal/application/usecases/events"
	edomain "github.com/Brayan1299/Restaurante-Api/internal/domain/events"
	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
)

type eventsStore struct {
	byID map[uuid.UUID]*edomain.Event
}

func newEventsStore() *eventsStore {
	return &eventsStore{byID: map[uuid.UUID]*edomain.Event{}}
}

func (s *eventsStore) Create(_ context.Context, event *edomain.Event) (uuid.UUID, error) {
	id := uuid.New()
	copied := *event
	copied.ID = id
	copied.CreatedAt = time.Now()
	s.byID[id] = &copied
	return id, nil
}

func (s *eventsStore) GetByID(_ context.Context, id uuid.UUID) (*edomain.Event, error) {
	event, ok := s.byID[id]
	if !ok {
		return nil, edomain.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

type statsStore struct {
	stats map[uuid.UUID]*tdomain.EventStats
}

func (s *statsStore) StatsByEvent(_ context.Context, eventID uuid.UUID) (*tdomain.EventStats, error) {
	if stats, ok := s.stats[eventID]; ok {
		return stats, nil
	}
	return &tdomain.EventStats{
		EventID:    eventID,
		Tickets:    map[tdomain.State]int{},
		Quantities: map[tdomain.State]int{},
		Revenue:    decimal.Zero,
	}, nil
}

func TestCreate(t *testing.T) {
	store := newEventsStore()
	usecase := events.NewEventsUsecase(store, &statsStore{})

	event, err := usecase.Create(context.Background(), events.CreateEventRequest{
		Name:      "Oyster night",
		Venue:     "Raw bar",
		StartsAt:  time.Now().Add(72 * time.Hour),
		UnitPrice: decimal.RequireFromString("35.00"),
		Capacity:  40,
		Active:    true,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "Oyster night", event.Name)
	assert.Equal(t, 40, event.Capacity)
	assert.Equal(t, 0, event.Sold)
	assert.Equal(t, 40, event.Available())
}

func TestGet(t *testing.T) {
	store := newEventsStore()
	usecase := events.NewEventsUsecase(store, &statsStore{})

	_, err := usecase.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, edomain.ErrEventNotFound)
}

func TestStats(t *testing.T) {
	store := newEventsStore()
	stats := &statsStore{stats: map[uuid.UUID]*tdomain.EventStats{}}
	usecase := events.NewEventsUsecase(store, stats)

	t.Run("unknown event refuses instead of returning empty stats", func(t *testing.T) {
		_, err := usecase.Stats(context.Background(), uuid.New())
		assert.ErrorIs(t, err, edomain.ErrEventNotFound)
	})

	t.Run("existing event", func(t *testing.T) {
		event, err := usecase.Create(context.Background(), events.CreateEventRequest{
			Name: "Oyster night", Capacity: 40, Active: true,
		})
		require.NoError(t, err)

		stats.stats[event.ID] = &tdomain.EventStats{
			EventID:    event.ID,
			Tickets:    map[tdomain.State]int{tdomain.StatePaid: 2},
			Quantities: map[tdomain.State]int{tdomain.StatePaid: 5},
			Revenue:    decimal.RequireFromString("175.00"),
		}

		got, err := usecase.Stats(context.Background(), event.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Tickets[tdomain.StatePaid])
		assert.True(t, got.Revenue.Equal(decimal.RequireFromString("175.00")))
	})
}
