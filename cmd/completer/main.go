package main

import (
	"context"
	"time"

	"rentio/internal/bookings/repository"
	"rentio/internal/bookings/service"
	"rentio/internal/bookings/validator"
	propertyRepository "rentio/internal/properties/repository"
	"rentio/pkg/config"
	"rentio/pkg/kafka"
	kafka_config "rentio/pkg/kafka/config"
)

const JobName = "rentio-completer"

// One-shot job: transitions confirmed bookings past checkout to completed.
// Meant to run on a daily schedule.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()
	cfg.Log.Info("Starting booking completion sweep")

	var publisher service.EventPublisher
	kafkaCfg := kafka_config.Load()
	if producer, err := kafka.NewProducer(kafkaCfg, kafka.TopicBookingEvents, kafka.TopicBookingEventsDLQ); err != nil {
		cfg.Log.Warn("Kafka disabled: producer setup failed", "error", err)
	} else {
		publisher = producer
		defer producer.Close()
	}

	bookings := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewBookingHoldRepository(cfg),
		propertyRepository.NewMongoPropertyRepository(cfg),
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	completed, err := bookings.CompleteDue(ctx)
	if err != nil {
		cfg.Log.Fatal("Completion sweep failed", "completed", completed, "error", err)
	}

	cfg.Log.Info("Completion sweep finished", "completed", completed)
}
