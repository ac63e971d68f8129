package payments_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brayan1299/Restaurante-Api/internal/application/services/payments"
	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
)

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type ticketsStore struct {
	mu     sync.Mutex
	byCode map[string]*tdomain.Ticket
}

func newTicketsStore(tickets ...*tdomain.Ticket) *ticketsStore {
	store := &ticketsStore{byCode: map[string]*tdomain.Ticket{}}
	for _, ticket := range tickets {
		store.byCode[ticket.Code] = ticket
	}
	return store
}

func (s *ticketsStore) Transition(
	_ context.Context,
	code string,
	from []tdomain.State,
	to tdomain.State,
) (*tdomain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.byCode[code]
	if !ok {
		return nil, tdomain.ErrTicketNotFound
	}

	allowed := false
	for _, state := range from {
		if ticket.State == state {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &tdomain.InvalidTransitionError{Code: code, Current: ticket.State, To: to}
	}

	ticket.State = to
	copied := *ticket
	return &copied, nil
}

func (s *ticketsStore) SetPaymentReference(_ context.Context, code, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.byCode[code]
	if !ok {
		return tdomain.ErrTicketNotFound
	}
	ticket.PaymentReference = reference
	return nil
}

func (s *ticketsStore) get(code string) *tdomain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *s.byCode[code]
	return &copied
}

type releaseRecorder struct {
	mu       sync.Mutex
	released map[uuid.UUID]int
	calls    int
}

func newReleaseRecorder() *releaseRecorder {
	return &releaseRecorder{released: map[uuid.UUID]int{}}
}

func (r *releaseRecorder) Release(_ context.Context, eventID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released[eventID] += quantity
	r.calls++
	return nil
}

type notificationLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newNotificationLedger() *notificationLedger {
	return &notificationLedger{seen: map[string]struct{}{}}
}

func (l *notificationLedger) Record(_ context.Context, paymentReference, ticketCode, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := paymentReference + "|" + ticketCode
	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) published() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.events...)
}

type fixture struct {
	service   *payments.ConfirmationService
	tickets   *ticketsStore
	releases  *releaseRecorder
	publisher *capturingPublisher
}

func newFixture(tickets ...*tdomain.Ticket) fixture {
	store := newTicketsStore(tickets...)
	releases := newReleaseRecorder()
	publisher := &capturingPublisher{}
	service := payments.NewConfirmationService(
		store,
		releases,
		newNotificationLedger(),
		passthroughTx{},
		func(context.Context) (payments.EventPublisher, error) { return publisher, nil },
	)
	return fixture{service: service, tickets: store, releases: releases, publisher: publisher}
}

func pendingTicket() *tdomain.Ticket {
	return &tdomain.Ticket{
		Code:     "TCK-FEDCBA9876543210FEDCBA9876543210",
		EventID:  uuid.New(),
		OwnerID:  uuid.New(),
		Quantity: 3,
		State:    tdomain.StatePending,
	}
}

func result(code string, outcome tdomain.PaymentOutcome, reference string) *tdomain.PaymentResultReceived_v1 {
	return &tdomain.PaymentResultReceived_v1{
		Header:           tdomain.NewEventHeaderWithIdempotencyKey(reference + ":" + code),
		PaymentReference: reference,
		Code:             code,
		Outcome:          outcome,
	}
}

func TestOnPaymentResult_Confirmed(t *testing.T) {
	ctx := context.Background()
	ticket := pendingTicket()
	f := newFixture(ticket)

	err := f.service.OnPaymentResult(ctx, result(ticket.Code, tdomain.PaymentConfirmed, "pay-001"))
	require.NoError(t, err)

	stored := f.tickets.get(ticket.Code)
	assert.Equal(t, tdomain.StatePaid, stored.State)
	assert.Equal(t, "pay-001", stored.PaymentReference)

	published := f.publisher.published()
	require.Len(t, published, 1)
	paid, ok := published[0].(tdomain.TicketPaid_v1)
	require.True(t, ok, "expected TicketPaid_v1, got %T", published[0])
	assert.Equal(t, ticket.Code, paid.Code)
	assert.Equal(t, "pay-001", paid.PaymentReference)
}

func TestOnPaymentResult_DuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	ticket := pendingTicket()
	f := newFixture(ticket)

	notification := result(ticket.Code, tdomain.PaymentConfirmed, "pay-001")
	require.NoError(t, f.service.OnPaymentResult(ctx, notification))
	require.NoError(t, f.service.OnPaymentResult(ctx, notification))
	require.NoError(t, f.service.OnPaymentResult(ctx, notification))

	assert.Equal(t, tdomain.StatePaid, f.tickets.get(ticket.Code).State)
	assert.Len(t, f.publisher.published(), 1, "redeliveries must not publish again")
}

func TestOnPaymentResult_Rejected(t *testing.T) {
	ctx := context.Background()
	ticket := pendingTicket()
	f := newFixture(ticket)

	err := f.service.OnPaymentResult(ctx, result(ticket.Code, tdomain.PaymentRejected, "pay-002"))
	require.NoError(t, err)

	assert.Equal(t, tdomain.StateCancelled, f.tickets.get(ticket.Code).State)
	assert.Equal(t, ticket.Quantity, f.releases.released[ticket.EventID])

	published := f.publisher.published()
	require.Len(t, published, 1)
	cancelled, ok := published[0].(tdomain.TicketCancelled_v1)
	require.True(t, ok, "expected TicketCancelled_v1, got %T", published[0])
	assert.Equal(t, "payment rejected", cancelled.Reason)
}

func TestOnPaymentResult_RejectedReleasesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	ticket := pendingTicket()
	f := newFixture(ticket)

	// same notification redelivered
	notification := result(ticket.Code, tdomain.PaymentRejected, "pay-002")
	require.NoError(t, f.service.OnPaymentResult(ctx, notification))
	require.NoError(t, f.service.OnPaymentResult(ctx, notification))

	// a retried charge under a fresh reference lands after the cancel
	require.NoError(t, f.service.OnPaymentResult(ctx, result(ticket.Code, tdomain.PaymentRejected, "pay-003")))

	assert.Equal(t, 1, f.releases.calls, "capacity must be released exactly once")
	assert.Equal(t, ticket.Quantity, f.releases.released[ticket.EventID])
}

func TestOnPaymentResult_StaleConfirmationAfterCancel(t *testing.T) {
	ctx := context.Background()
	ticket := pendingTicket()
	ticket.State = tdomain.StateCancelled
	f := newFixture(ticket)

	err := f.service.OnPaymentResult(ctx, result(ticket.Code, tdomain.PaymentConfirmed, "pay-004"))
	require.NoError(t, err, "a late confirmation must be acked, not retried forever")

	assert.Equal(t, tdomain.StateCancelled, f.tickets.get(ticket.Code).State, "terminal states never resurrect")
	assert.Empty(t, f.publisher.published())
}

func TestOnPaymentResult_UnknownTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	err := f.service.OnPaymentResult(ctx, result("TCK-DOESNOTEXIST", tdomain.PaymentConfirmed, "pay-005"))
	require.NoError(t, err)
	assert.Empty(t, f.publisher.published())
}

func TestOnPaymentResult_UnknownOutcomeDropped(t *testing.T) {
	ctx := context.Background()
	ticket := pendingTicket()
	f := newFixture(ticket)

	err := f.service.OnPaymentResult(ctx, result(ticket.Code, tdomain.PaymentOutcome("weird"), "pay-006"))
	require.NoError(t, err)

	assert.Equal(t, tdomain.StatePending, f.tickets.get(ticket.Code).State)
	assert.Empty(t, f.publisher.published())
}
