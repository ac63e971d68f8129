package outbox

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"

	"github.com/Brayan1299/Restaurante-Api/internal/interfaces/events"
)

const Topic = "events_to_forward"

// NewPublisher writes messages to the outbox table through the given
// transaction, wrapped in an envelope for the forwarder. Publishing commits
// or rolls back together with the business change.
func NewPublisher(
	tx watermillSQL.ContextExecutor,
	logger watermill.LoggerAdapter,
) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox publisher: %w", err)
	}

	return forwarder.NewPublisher(publisher, forwarder.PublisherConfig{
		ForwarderTopic: Topic,
	}), nil
}

// BusFactory builds an event bus bound to the transaction in ctx. Usecases
// call it inside trManager.Do so their events ride the same transaction.
type BusFactory struct {
	getter *trmsqlx.CtxGetter
	logger watermill.LoggerAdapter
}

func NewBusFactory(getter *trmsqlx.CtxGetter, logger watermill.LoggerAdapter) *BusFactory {
	return &BusFactory{getter: getter, logger: logger}
}

func (f *BusFactory) EventBus(ctx context.Context) (*cqrs.EventBus, error) {
	tr := f.getter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return nil, fmt.Errorf("no transaction in context")
	}

	publisher, err := NewPublisher(tr, f.logger)
	if err != nil {
		return nil, err
	}

	return events.NewEventBus(publisher, f.logger)
}
