package main

import (
	analyticsHandler "rentio/internal/analytics/handler"
	analyticsRepository "rentio/internal/analytics/repository"
	analyticsService "rentio/internal/analytics/service"
	bookingHandler "rentio/internal/bookings/handler"
	bookingRepository "rentio/internal/bookings/repository"
	bookingService "rentio/internal/bookings/service"
	bookingValidator "rentio/internal/bookings/validator"
	propertyHandler "rentio/internal/properties/handler"
	propertyRepository "rentio/internal/properties/repository"
	propertyService "rentio/internal/properties/service"
	propertyValidator "rentio/internal/properties/validator"
	reviewHandler "rentio/internal/reviews/handler"
	reviewRepository "rentio/internal/reviews/repository"
	reviewService "rentio/internal/reviews/service"
	userHandler "rentio/internal/users/handler"
	userRepository "rentio/internal/users/repository"
	userService "rentio/internal/users/service"
	"rentio/pkg/app"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	"rentio/pkg/contracts"
	"rentio/pkg/kafka"
	kafka_config "rentio/pkg/kafka/config"
)

const ServiceName = "rentio-api"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Booking events are best effort; the API stays up without a broker.
	var publisher bookingService.EventPublisher
	if producer := initProducer(cfg); producer != nil {
		publisher = producer
		defer producer.Close()
	}

	cfg.Log.Info("Starting Rentio API service")
	handlers := initHandlers(cfg, tokens, publisher)

	serverApp := app.NewApplication(cfg, tokens)
	serverApp.SetApp(handlers...)
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, kafka.TopicBookingEvents, kafka.TopicBookingEventsDLQ)
	if err != nil {
		cfg.Log.Warn("Kafka disabled: producer setup failed", "error", err)
		return nil
	}
	return producer
}

func initHandlers(cfg *config.Config, tokens *auth.TokenManager, publisher bookingService.EventPublisher) []contracts.Handler {
	userRepo := userRepository.NewMongoUserRepository(cfg)
	users := userService.NewUserService(userRepo, cfg)

	historyRepo := analyticsRepository.NewMongoHistoryRepository(cfg)
	analytics := analyticsService.NewAnalyticsService(historyRepo, cfg)

	propertyRepo := propertyRepository.NewMongoPropertyRepository(cfg)
	properties := propertyService.NewPropertyService(
		propertyRepo,
		propertyValidator.NewPropertyValidator(cfg.Log),
		analytics,
		cfg,
	)

	reviewRepo := reviewRepository.NewMongoReviewRepository(cfg)
	reviews := reviewService.NewReviewService(reviewRepo, propertyRepo, cfg)

	bookingRepo := bookingRepository.NewMongoBookingRepository(cfg)
	holdRepo := bookingRepository.NewBookingHoldRepository(cfg)
	bookings := bookingService.NewBookingService(
		bookingRepo,
		holdRepo,
		propertyRepo,
		bookingValidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		userHandler.NewUserHandler(users, tokens, cfg),
		propertyHandler.NewPropertyHandler(properties, cfg.Log),
		analyticsHandler.NewAnalyticsHandler(analytics, cfg.Log),
		reviewHandler.NewReviewHandler(reviews, cfg.Log),
		bookingHandler.NewBookingHandler(bookings, cfg.Log),
	}
}
