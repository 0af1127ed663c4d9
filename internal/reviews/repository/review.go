package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reviewserrors "rentio/internal/reviews/errors"
	"rentio/pkg/config"
	"rentio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reviews"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	FindByProperty(ctx context.Context, propertyID string, minRating *int, limit int, offset int64) ([]*model.Review, error)
	CountByProperty(ctx context.Context, propertyID string, minRating *int) (int64, error)
	AverageRating(ctx context.Context, propertyID string) (float64, error)
	Update(ctx context.Context, id string, review *model.Review) error
	Delete(ctx context.Context, id string) error
}

type mongoReviewRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoReviewRepository(cfg *config.Config) ReviewRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReviewRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoReviewRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	review.CreatedAt = now
	review.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reviewserrors.ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reviewserrors.ErrInvalidID, id)
	}

	var review model.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reviewserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	return &review, nil
}

func (r *mongoReviewRepository) FindByProperty(ctx context.Context, propertyID string, minRating *int, limit int, offset int64) ([]*model.Review, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, propertyFilter(propertyID, minRating), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []*model.Review
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

func (r *mongoReviewRepository) CountByProperty(ctx context.Context, propertyID string, minRating *int) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, propertyFilter(propertyID, minRating))
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// AverageRating computes the mean rating across all reviews of a property,
// ignoring any min_rating filter. Returns 0 when there are no reviews.
func (r *mongoReviewRepository) AverageRating(ctx context.Context, propertyID string) (float64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"property_id": propertyID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate average rating: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Average float64 `bson:"average"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode average rating: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Average, nil
}

func (r *mongoReviewRepository) Update(ctx context.Context, id string, review *model.Review) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reviewserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.MatchedCount == 0 {
		return reviewserrors.ErrNotFound
	}
	return nil
}

func (r *mongoReviewRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reviewserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return reviewserrors.ErrNotFound
	}
	return nil
}

func propertyFilter(propertyID string, minRating *int) bson.M {
	filter := bson.M{"property_id": propertyID}
	if minRating != nil {
		filter["rating"] = bson.M{"$gte": *minRating}
	}
	return filter
}
