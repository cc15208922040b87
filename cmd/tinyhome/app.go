package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"tinyhome/internal/app/commands"
	availabilityapp "tinyhome/internal/app/handlers/availability"
	bookingapp "tinyhome/internal/app/handlers/booking"
	pricingapp "tinyhome/internal/app/handlers/pricing"
	"tinyhome/internal/app/middleware"
	"tinyhome/internal/app/outbox"
	"tinyhome/internal/app/policies"
	"tinyhome/internal/app/queries"
	bookingsvc "tinyhome/internal/app/services/booking"
	"tinyhome/internal/domain/pricing"
	"tinyhome/internal/domain/shared/money"
	"tinyhome/internal/infra/broker/kafka"
	"tinyhome/internal/infra/calendar/cache"
	"tinyhome/internal/infra/calendar/ical"
	"tinyhome/internal/infra/config"
	ginserver "tinyhome/internal/infra/http/gin"
	"tinyhome/internal/infra/notify"
	"tinyhome/internal/infra/obs"
	infraoutbox "tinyhome/internal/infra/outbox"
	"tinyhome/internal/infra/payments/paypal"
	"tinyhome/internal/infra/storage/memory"
	"tinyhome/internal/infra/storage/s3"
	"tinyhome/internal/infra/validation"
)

type application struct {
	service  *bookingsvc.Service
	feed     *cache.Calendar
	commands commands.Bus
	queries  queries.Bus
	gallery  s3.Gallery
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	worker   *infraoutbox.Worker
	consumer *kafka.Consumer
	closers  []func() error
}

// dependencies lets tests swap the outbound adapters.
type dependencies struct {
	Source   policies.CalendarSource
	Payments policies.PaymentVerifier
	Notifier policies.Notifier
	Producer infraoutbox.Producer
	Gallery  s3.Gallery
}

func buildApplication(cfg config.Config, logger *slog.Logger, deps dependencies) (*application, error) {
	app := &application{}
	loc := cfg.Location()

	engine, err := newPricingEngine(cfg)
	if err != nil {
		return nil, err
	}

	source := deps.Source
	if source == nil {
		source = ical.NewSource(cfg.ICalURL, cfg.ICalTimeout, loc, logger)
	}
	store, err := app.newSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}
	app.feed = cache.New(source, store, cfg.CacheTTL, logger)

	payments := deps.Payments
	if payments == nil {
		payments = newPaymentVerifier(cfg, logger)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = newNotifier(cfg, logger)
	}

	outboxStore := memory.NewOutbox()
	app.service = &bookingsvc.Service{
		Cache:        app.feed,
		Reservations: memory.NewReservationStore(),
		Payments:     payments,
		Notifier:     notifier,
		Pricing:      engine,
		Outbox:       outboxStore,
		Encoder:      outbox.JSONEventEncoder{},
		Location:     loc,
		OwnerEmail:   cfg.OwnerEmail,
		HorizonDays:  cfg.HorizonDays,
		Logger:       logger,
	}

	commandBus := commands.NewInMemoryBus()
	bookingapp.Register(commandBus, app.service)
	queryBus := queries.NewInMemoryBus()
	availabilityapp.Register(queryBus, app.service)
	pricingapp.Register(queryBus, app.service)

	validator := validation.New()
	app.commands = middleware.ChainCommands(
		commandBus,
		middleware.CommandLogging(logger),
		middleware.Validation(validator),
		middleware.Idempotency(memory.NewIdempotencyStore(), middleware.IdempotencyOptions{Logger: logger}),
		middleware.OutboxFlush(outboxStore, logger),
	)
	app.queries = middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)

	producer := deps.Producer
	if producer == nil {
		if producer, err = app.newProducer(cfg, logger); err != nil {
			return nil, err
		}
	}
	app.worker = &infraoutbox.Worker{
		Store:       outboxStore,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	if cfg.KafkaEnabled() && cfg.InvalidationTopic != "" {
		handler := kafka.InvalidationHandler{Cache: app.feed, Logger: logger}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, nil, handler, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		app.consumer = consumer
		app.closers = append(app.closers, consumer.Close)
	}

	app.gallery = deps.Gallery
	if app.gallery == nil {
		if app.gallery, err = newGallery(cfg, logger); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.handlers = ginserver.Handlers{
		Booking:      ginserver.BookingHandler{Commands: app.commands, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: app.queries, Logger: logger},
		Pricing:      ginserver.PricingHandler{Queries: app.queries, Logger: logger},
		Gallery:      ginserver.GalleryHandler{Photos: app.gallery, Logger: logger},
	}
	return app, nil
}

// Close releases broker and cache connections in reverse order of creation.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *application) newSnapshotStore(cfg config.Config) (cache.Store, error) {
	if cfg.CacheBackend != config.CacheRedis {
		return cache.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, client.Close)
	a.health.Ready = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	// snapshots outlive the TTL so a redis copy can still seed a fresh process
	return cache.NewRedisStore(client, cfg.RedisKey, 2*cfg.CacheTTL), nil
}

func (a *application) newProducer(cfg config.Config, logger *slog.Logger) (infraoutbox.Producer, error) {
	if !cfg.KafkaEnabled() {
		return infraoutbox.LogProducer{Logger: logger}, nil
	}
	sc := sarama.NewConfig()
	sc.ClientID = "tinyhome"
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, producer.Close)
	return producer, nil
}

func newPricingEngine(cfg config.Config) (*pricing.Engine, error) {
	nightly, err := money.Parse(cfg.DefaultNightly, cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_DEFAULT_NIGHTLY: %w", err)
	}
	rules := pricing.DefaultRules(cfg.Currency)
	if strings.TrimSpace(cfg.SpecialPrices) != "" {
		if rules, err = pricing.ParseRules(cfg.SpecialPrices, cfg.Currency); err != nil {
			return nil, err
		}
	}
	return pricing.NewEngine(nightly, rules, pricing.DefaultTiers)
}

func newPaymentVerifier(cfg config.Config, logger *slog.Logger) *paypal.Client {
	base := cfg.PayPalBaseURL
	if base == "" {
		base = paypal.SandboxBaseURL
		if cfg.PayPalLive() {
			base = paypal.LiveBaseURL
		}
	}
	return paypal.NewClient(base, cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalTimeout, logger)
}

func newNotifier(cfg config.Config, logger *slog.Logger) policies.Notifier {
	if cfg.SendGridAPIKey == "" || cfg.EmailFrom == "" {
		logger.Warn("email delivery disabled", "reason", "SENDGRID_API_KEY or EMAIL_FROM missing")
		return notify.LogNotifier{Logger: logger}
	}
	return notify.NewSendGrid(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName, logger)
}

func newGallery(cfg config.Config, logger *slog.Logger) (s3.Gallery, error) {
	if !cfg.S3Enabled() {
		return s3.StaticGallery{URLs: cfg.GalleryURLs}, nil
	}
	client, err := s3.NewClient(s3.Options{
		Endpoint:      cfg.S3Endpoint,
		UseSSL:        cfg.S3UseSSL,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: publicBaseURL(cfg.S3PublicEndpoint, cfg.S3UseSSL),
		Prefix:        cfg.GalleryPrefix,
	}, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func publicBaseURL(endpoint string, useSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
