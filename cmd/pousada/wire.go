package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/IBM/sarama"

	"pousada/internal/app/cache"
	"pousada/internal/app/commands"
	"pousada/internal/app/handlers/reservations"
	"pousada/internal/app/middleware"
	appoutbox "pousada/internal/app/outbox"
	"pousada/internal/app/policies"
	"pousada/internal/app/queries"
	authsvc "pousada/internal/app/services/auth"
	"pousada/internal/app/validation"
	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/infra/broker/kafka"
	"pousada/internal/infra/config"
	mongostore "pousada/internal/infra/db/mongo"
	ginserver "pousada/internal/infra/http/gin"
	"pousada/internal/infra/obs"
	outboxrelay "pousada/internal/infra/outbox"
	"pousada/internal/infra/pmsapi"
	"pousada/internal/infra/security"
	"pousada/internal/infra/storage/memory"
	"pousada/internal/infra/storage/s3"
)

type outboxStore interface {
	appoutbox.Outbox
	appoutbox.Relay
}

type application struct {
	handlers     ginserver.Handlers
	health       obs.HealthHandlers
	worker       *outboxrelay.Worker
	consumer     *kafka.Consumer
	reservations *cache.Store[reservations.Projection]
	options      *cache.Store[[]accommodation.Option]
	closers      []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]obs.Check{}}}

	pms := pmsapi.New(cfg.PMSAPIURL, &http.Client{Timeout: cfg.PMSTimeout}, logger.With("component", "pms"))

	var (
		box      outboxStore
		idem     middleware.IdempotencyStore
		sessions domainauth.SessionStore
	)
	if cfg.MongoURI != "" {
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.health.Checks["mongo"] = client.Ping

		if idem, err = mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL); err != nil {
			return nil, fmt.Errorf("mongo idempotency: %w", err)
		}
		if sessions, err = mongostore.NewSessionStore(ctx, client.DB); err != nil {
			return nil, fmt.Errorf("mongo sessions: %w", err)
		}
		if box, err = outboxrelay.NewStore(ctx, client.DB); err != nil {
			return nil, fmt.Errorf("mongo outbox: %w", err)
		}
		logger.Info("mongo storage enabled", "db", cfg.MongoDB)
	} else {
		idem = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		sessions = memory.NewSessionStore()
		box = memory.NewOutbox()
		logger.Info("in-memory storage enabled")
	}

	var statements policies.StatementStore
	if cfg.StatementsEnabled() {
		store, err := s3.NewStatementStore(s3.Options{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			UseSSL:         cfg.S3UseSSL,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
		}, logger.With("component", "statements"))
		if err != nil {
			return nil, err
		}
		statements = store
		app.health.Checks["s3"] = store.Ping
	}

	registry := middleware.NewInFlightRegistry()
	app.reservations = cache.New[reservations.Projection](cfg.CacheTTL)
	app.options = cache.New[[]accommodation.Option](cfg.CacheTTL)
	workflow := reservations.NewWorkflow(pms, app.reservations, registry, box, logger)
	options := &reservations.Options{Workflow: workflow, Cache: app.options}
	v := validation.New()

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	reservations.Register(commandBus, queryBus, workflow, options, statements, v)

	authz := middleware.SessionAuthorizer{}
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Authorization(authz),
		middleware.Validation(v),
		middleware.Idempotency(idem, nil),
		middleware.InFlight(registry),
		middleware.OutboxFlush(box, logger),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryAuthorization(authz),
		middleware.QueryValidation(v),
	)

	auth := &authsvc.Service{
		PMS:        pms,
		Sessions:   sessions,
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	var producer outboxrelay.Producer = outboxrelay.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, sarama.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		producer = p
		app.closers = append(app.closers, func(context.Context) error { return p.Close() })

		if cfg.KafkaInvalidationTopic != "" {
			handler := kafka.InvalidationHandler{Cache: workflow, Logger: logger}
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, sarama.NewConfig(), handler, logger)
			if err != nil {
				return nil, fmt.Errorf("kafka consumer: %w", err)
			}
			app.consumer = consumer
			app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
		}
	}
	app.worker = &outboxrelay.Worker{
		Relay:       box,
		Producer:    producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}

	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: auth, Logger: logger},
		Reservation:    ginserver.ReservationHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Folio:          ginserver.FolioHandler{Commands: commandBusWithMiddleware, Logger: logger},
		Accommodation:  ginserver.AccommodationHandler{Queries: queryBusWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: auth, Logger: logger}.Handle,
	}
	return app, nil
}

// sweepCaches drops expired entries so idle reservations do not pile up.
func (a *application) sweepCaches(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.reservations.Sweep()
			a.options.Sweep()
		}
	}
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}
