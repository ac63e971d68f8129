package sweeper_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brayan1299/Restaurante-Api/internal/application/services/sweeper"
	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
)

type batchLister struct {
	mu      sync.Mutex
	batches [][]tdomain.Ticket
	cutoffs []time.Time
}

func (l *batchLister) ListExpiredPending(_ context.Context, cutoff time.Time, _ int) ([]tdomain.Ticket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cutoffs = append(l.cutoffs, cutoff)
	if len(l.batches) == 0 {
		return nil, nil
	}
	batch := l.batches[0]
	l.batches = l.batches[1:]
	return batch, nil
}

type cancelRecorder struct {
	mu     sync.Mutex
	codes  []string
	reason string
	fail   map[string]error
}

func (r *cancelRecorder) Cancel(_ context.Context, code, reason string) (*tdomain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[code]; ok {
		return nil, err
	}
	r.codes = append(r.codes, code)
	r.reason = reason
	return &tdomain.Ticket{Code: code, State: tdomain.StateCancelled}, nil
}

func expired(codes ...string) []tdomain.Ticket {
	out := make([]tdomain.Ticket, 0, len(codes))
	for _, code := range codes {
		out = append(out, tdomain.Ticket{Code: code, State: tdomain.StatePending})
	}
	return out
}

func TestSweep(t *testing.T) {
	t.Run("cancels every expired pending ticket", func(t *testing.T) {
		lister := &batchLister{batches: [][]tdomain.Ticket{expired("TCK-A", "TCK-B")}}
		canceller := &cancelRecorder{}
		s := sweeper.New(lister, canceller, 15*time.Minute, time.Minute, zerolog.Nop())

		s.Sweep(context.Background())

		assert.ElementsMatch(t, []string{"TCK-A", "TCK-B"}, canceller.codes)
		assert.Equal(t, "payment timeout", canceller.reason)
	})

	t.Run("cutoff honors the ttl", func(t *testing.T) {
		lister := &batchLister{}
		s := sweeper.New(lister, &cancelRecorder{}, 15*time.Minute, time.Minute, zerolog.Nop())

		before := time.Now()
		s.Sweep(context.Background())

		require.Len(t, lister.cutoffs, 1)
		assert.WithinDuration(t, before.Add(-15*time.Minute), lister.cutoffs[0], time.Second)
	})

	t.Run("race losers are skipped, not fatal", func(t *testing.T) {
		lister := &batchLister{batches: [][]tdomain.Ticket{expired("TCK-A", "TCK-B", "TCK-C")}}
		canceller := &cancelRecorder{fail: map[string]error{
			// TCK-A got paid between the listing and the cancel
			"TCK-A": &tdomain.InvalidTransitionError{Code: "TCK-A", Current: tdomain.StatePaid, To: tdomain.StateCancelled},
			// TCK-B no longer exists
			"TCK-B": tdomain.ErrTicketNotFound,
		}}
		s := sweeper.New(lister, canceller, 15*time.Minute, time.Minute, zerolog.Nop())

		s.Sweep(context.Background())

		assert.Equal(t, []string{"TCK-C"}, canceller.codes)
	})

	t.Run("drains full batches until the backlog is empty", func(t *testing.T) {
		full := make([]tdomain.Ticket, 100)
		for i := range full {
			full[i] = tdomain.Ticket{Code: fmt.Sprintf("TCK-FULL-%03d", i), State: tdomain.StatePending}
		}
		rest := expired("TCK-REST-1", "TCK-REST-2")

		lister := &batchLister{batches: [][]tdomain.Ticket{full, rest}}
		canceller := &cancelRecorder{}
		s := sweeper.New(lister, canceller, 15*time.Minute, time.Minute, zerolog.Nop())

		s.Sweep(context.Background())

		assert.Len(t, canceller.codes, 102)
		assert.Len(t, lister.cutoffs, 2, "a full batch means there may be more")
	})
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	lister := &batchLister{}
	s := sweeper.New(lister, &cancelRecorder{}, 15*time.Minute, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}

	lister.mu.Lock()
	defer lister.mu.Unlock()
	assert.NotEmpty(t, lister.cutoffs, "sweeper should have ticked at least once")
}
