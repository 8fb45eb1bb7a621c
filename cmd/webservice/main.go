package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/app"
	circuitbreaker "github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/circuit-breaker"
	paymentgateway "github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/payment-gateway"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/tracing"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/realtime"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	config := config.CreateNewConfig()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", tracing.ServiceName).Logger()
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	// background jobs log through log.Ctx without a request logger attached
	zerolog.DefaultContextLogger = &logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	traceProvider, err := tracing.InitTracing(config.TracingConfig.CollectorHost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	defer func() {
		if err := traceProvider.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown tracing")
		}
	}()

	orderRepo, paymentRepo, closeStorage, err := app.OpenStorage(config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer closeStorage()

	if config.PaystackConfig.SecretKey == "" {
		log.Error().Msg("PAYSTACK_SECRET_KEY not set, webhooks and verification will be rejected")
	}

	cb := circuitbreaker.CreateCircuitBreaker("paystack")
	paystackClient := paymentgateway.CreatePaystackClient(config.PaystackConfig, cb)

	publisher, closePublisher := app.CreatePublisher(config)
	defer closePublisher()

	log.Info().Str("environment", config.Environment).Str("port", config.ServicePort).Msg("Starting payment service")

	hub := realtime.CreateHub()
	changes, err := orderRepo.WatchOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to watch orders, live dashboard updates disabled")
	} else {
		go hub.Run(ctx, changes)
	}

	server := app.App{
		Config:      config,
		OrderRepo:   orderRepo,
		PaymentRepo: paymentRepo,
		Gateway:     paystackClient,
		Publisher:   publisher,
		Mailer:      app.CreateMailer(config),
		Subscriber:  hub,
		Tracer:      traceProvider.Tracer(tracing.ServiceName),
	}
	server.Build()

	metricsServer := app.StartMetricsServer(config.MetricsPort)

	s, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	// add a job to the scheduler
	_, err = s.NewJob(
		gocron.DurationJob(
			config.SweeperConfig.Interval,
		),
		gocron.NewTask(
			func() {
				if err := server.PaymentService.SweepPendingPayments(ctx); err != nil {
					log.Error().Err(err).Str("component", "SweepPendingPayments").Msg("sweep aborted")
				}
			},
		),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule sweeper")
	}

	s.Start()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	if err := s.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Failed to stop scheduler")
	}
	if err := server.StopServer(); err != nil {
		log.Error().Err(err).Msg("Failed to stop server")
	}
	if err := metricsServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to stop metrics server")
	}
}
