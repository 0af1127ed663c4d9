package repository

import (
	"context"
	"time"

	"rentio/pkg/config"
	"rentio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BookingHoldRepository provides operations for advisory date-range holds.
type BookingHoldRepository interface {
	Create(ctx context.Context, hold *model.BookingHold) (*model.BookingHold, error)
	Delete(ctx context.Context, holdID string) error
}

type mongoBookingHoldRepository struct {
	collection *mongo.Collection
}

func NewBookingHoldRepository(cfg *config.Config) BookingHoldRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingHoldRepository{
		collection: db.Collection("Booking_holds"),
	}
}

// Returns duplicate key error if a hold for the same range already exists
func (r *mongoBookingHoldRepository) Create(ctx context.Context, hold *model.BookingHold) (*model.BookingHold, error) {
	hold.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, hold)
	if err != nil {
		return nil, err
	}

	return hold, nil
}

// Delete removes an advisory hold
func (r *mongoBookingHoldRepository) Delete(ctx context.Context, holdID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": holdID})
	return err
}
