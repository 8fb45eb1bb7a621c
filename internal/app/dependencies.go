package app

import (
	"context"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/database/mongodb"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/mailer"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/message-queue/kafka"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/repository"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/service"
	"github.com/rs/zerolog/log"
)

// OpenStorage returns MongoDB repositories when a URI is configured and a
// shared in-memory store otherwise. The returned function releases the
// connection.
func OpenStorage(config *config.Config) (repository.OrderRepository, repository.PaymentRepository, func(), error) {
	if config.MongoDBConfig.URI == "" {
		log.Warn().Msg("MONGODB_URI not set, using in-memory storage")
		memoryRepo := repository.CreateMemoryRepository()
		return memoryRepo, memoryRepo, func() {}, nil
	}

	db, err := mongodb.ConnectToMongoDB(config.MongoDBConfig.URI, config.MongoDBConfig.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	closeFn := func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect from the database")
		}
	}

	return repository.CreateMongoDBOrderRepository(db), repository.CreateMongoDBPaymentRepository(db), closeFn, nil
}

// CreatePublisher falls back to a no-op publisher when no broker is configured.
func CreatePublisher(config *config.Config) (service.EventPublisher, func()) {
	if config.KafkaConfig.BrokerAddress == "" {
		return kafka.NoopProducer{}, func() {}
	}

	producer := kafka.CreateKafkaProducer(config)
	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close kafka producer")
		}
	}
}

func CreateMailer(config *config.Config) service.Mailer {
	if config.SMTPConfig.Host == "" {
		return mailer.NoopMailer{}
	}
	return mailer.CreateSMTPMailer(config.SMTPConfig)
}
