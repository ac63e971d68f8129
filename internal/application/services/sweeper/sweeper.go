package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	tdomain "github.com/Brayan1299/Restaurante-Api/internal/domain/tickets"
	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

type PendingLister interface {
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]tdomain.Ticket, error)
}

type Canceller interface {
	Cancel(ctx context.Context, code, reason string) (*tdomain.Ticket, error)
}

const batchSize = 100

// Sweeper cancels pending tickets whose payment never arrived, so abandoned
// purchase flows cannot leak capacity forever. It reuses the same guarded
// cancel path as everything else: a payment confirmation racing the sweep
// still produces exactly one winner.
type Sweeper struct {
	tickets   PendingLister
	canceller Canceller
	ttl       time.Duration
	interval  time.Duration
	logger    zerolog.Logger
}

func New(
	tickets PendingLister,
	canceller Canceller,
	ttl time.Duration,
	interval time.Duration,
	logger zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		tickets:   tickets,
		canceller: canceller,
		ttl:       ttl,
		interval:  interval,
		logger:    logger,
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass; exported so tests and admin tooling can trigger it
// without the ticker.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)

	for {
		expired, err := s.tickets.ListExpiredPending(ctx, cutoff, batchSize)
		if err != nil {
			s.logger.Err(err).Msg("failed to list expired pending tickets")
			return
		}

		for _, ticket := range expired {
			_, err := s.canceller.Cancel(ctx, ticket.Code, "payment timeout")
			if errors.Is(err, tdomain.ErrInvalidTransition) || errors.Is(err, tdomain.ErrTicketNotFound) {
				// lost the race to a payment result, which is fine
				continue
			}
			if err != nil {
				s.logger.Err(err).Str("code", ticket.Code).Msg("failed to cancel expired ticket")
				continue
			}
			observability.TrackTicketCancelled("payment_timeout")
			s.logger.Info().Str("code", ticket.Code).Msg("cancelled expired pending ticket")
		}

		if len(expired) < batchSize {
			return
		}
	}
}
