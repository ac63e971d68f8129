package app

import (
	"context"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Brayan1299/Restaurante-Api/internal/application/services/payments"
	"github.com/Brayan1299/Restaurante-Api/internal/application/services/sweeper"
	eventsUsecase "github.com/Brayan1299/Restaurante-Api/internal/application/usecases/events"
	"github.com/Brayan1299/Restaurante-Api/internal/application/usecases/redemption"
	"github.com/Brayan1299/Restaurante-Api/internal/application/usecases/ticketing"
	"github.com/Brayan1299/Restaurante-Api/internal/config"
	"github.com/Brayan1299/Restaurante-Api/internal/interfaces/events"
	"github.com/Brayan1299/Restaurante-Api/internal/interfaces/http"
	"github.com/Brayan1299/Restaurante-Api/internal/outbox"
	"github.com/Brayan1299/Restaurante-Api/internal/repository"
)

type App struct {
	logger    zerolog.Logger
	router    *message.Router
	forwarder *outbox.Forwarder
	sweep     *sweeper.Sweeper
	srv       *http.Server
	db        *sqlx.DB
}

func NewApp(
	cfg *config.Config,
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
	notifier events.Notifier,
	gateway events.ChargeRequester,
	qr http.QREncoder,
) (*App, error) {
	logger := zerolog.New(os.Stdout)

	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))
	getter := trmsqlx.DefaultCtxGetter

	eventsRepo := repository.NewEventsRepo(db, getter)
	ticketsRepo := repository.NewTicketsRepo(db, getter)
	notificationsRepo := repository.NewPaymentNotificationsRepo(db, getter)

	busFactory := outbox.NewBusFactory(getter, watermillLogger)

	ticketingUsecase := ticketing.NewTicketingUsecase(
		eventsRepo,
		ticketsRepo,
		trManager,
		func(ctx context.Context) (ticketing.EventPublisher, error) {
			return busFactory.EventBus(ctx)
		},
	)
	redemptionUsecase := redemption.NewRedemptionUsecase(
		ticketsRepo,
		trManager,
		func(ctx context.Context) (redemption.EventPublisher, error) {
			return busFactory.EventBus(ctx)
		},
	)
	eventsService := eventsUsecase.NewEventsUsecase(eventsRepo, ticketsRepo)

	confirmationService := payments.NewConfirmationService(
		ticketsRepo,
		eventsRepo,
		notificationsRepo,
		trManager,
		func(ctx context.Context) (payments.EventPublisher, error) {
			return busFactory.EventBus(ctx)
		},
	)

	sweep := sweeper.New(
		ticketsRepo,
		ticketingUsecase,
		cfg.PendingTicketTTL,
		cfg.SweepInterval,
		logger,
	)

	forwarder, err := outbox.NewForwarder(db, redisClient, watermillLogger)
	if err != nil {
		return nil, err
	}

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)

	processor, err := events.NewEventProcessor(router, redisClient, watermillLogger)
	if err != nil {
		return nil, err
	}
	err = processor.AddHandlers(
		events.PaymentResultHandler(confirmationService),
		events.RequestChargeHandler(gateway),
		events.NotifyTicketPaidHandler(notifier),
		events.NotifyTicketCancelledHandler(notifier),
		events.NotifyTicketRedeemedHandler(notifier),
	)
	if err != nil {
		return nil, err
	}

	// the webhook publishes straight to redis: the gateway's own retries
	// already give the inbound leg at-least-once delivery
	redisPublisher, err := outbox.NewRedisPublisher(redisClient, watermillLogger)
	if err != nil {
		return nil, err
	}
	webhookBus, err := events.NewEventBus(redisPublisher, watermillLogger)
	if err != nil {
		return nil, err
	}

	srv := http.NewServer(
		cfg.HTTPAddr,
		ticketingUsecase,
		redemptionUsecase,
		eventsService,
		qr,
		webhookBus,
		cfg.GatewayWebhookSecret,
		router.IsRunning,
	)

	return &App{
		logger:    logger,
		router:    router,
		forwarder: forwarder,
		sweep:     sweep,
		srv:       srv,
		db:        db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if err := repository.InitializeDBSchema(a.db); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msg("starting message router")
		return a.router.Run(ctx)
	})

	g.Go(func() error {
		a.logger.Info().Msg("starting outbox forwarder")
		return a.forwarder.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("starting pending-ticket sweeper")
		return a.sweep.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("starting http server")
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()

		err := a.srv.Stop(context.Background())
		if err != nil {
			a.logger.Err(err).Msg("error stopping http server")
		}
		return err
	})

	return g.Wait()
}
