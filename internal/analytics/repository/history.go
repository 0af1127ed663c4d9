package repository

import (
	"context"
	"fmt"
	"time"

	"rentio/pkg/config"
	"rentio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ViewHistoryCollection   = "View_history"
	SearchHistoryCollection = "Search_history"
)

type HistoryRepository interface {
	UpsertView(ctx context.Context, userID, propertyID string) error
	FindViewsByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.ViewHistory, error)
	CountViewsByUser(ctx context.Context, userID string) (int64, error)
	InsertSearch(ctx context.Context, userID, query string) error
	PopularSearches(ctx context.Context, since time.Time, limit int) ([]*model.PopularSearch, error)
}

type mongoHistoryRepository struct {
	cfg      *config.Config
	views    *mongo.Collection
	searches *mongo.Collection
}

func NewMongoHistoryRepository(cfg *config.Config) HistoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHistoryRepository{
		cfg:      cfg,
		views:    db.Collection(ViewHistoryCollection),
		searches: db.Collection(SearchHistoryCollection),
	}
}

func (r *mongoHistoryRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// UpsertView keeps one document per (user, property) pair, refreshing the
// timestamp on repeat views.
func (r *mongoHistoryRepository) UpsertView(ctx context.Context, userID, propertyID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "property_id": propertyID}
	update := bson.M{"$set": bson.M{"timestamp": time.Now().UTC()}}

	_, err := r.views.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert view history: %w", err)
	}
	return nil
}

func (r *mongoHistoryRepository) FindViewsByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.ViewHistory, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.views.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find view history: %w", err)
	}
	defer cursor.Close(ctx)

	var views []*model.ViewHistory
	if err = cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("failed to decode view history: %w", err)
	}

	return views, nil
}

func (r *mongoHistoryRepository) CountViewsByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.views.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count view history: %w", err)
	}
	return count, nil
}

func (r *mongoHistoryRepository) InsertSearch(ctx context.Context, userID, query string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc := model.SearchHistory{
		UserID:    userID,
		Query:     query,
		Timestamp: time.Now().UTC(),
	}
	if _, err := r.searches.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert search history: %w", err)
	}
	return nil
}

// PopularSearches groups recent searches by query text and returns the most
// frequent ones.
func (r *mongoHistoryRepository) PopularSearches(ctx context.Context, since time.Time, limit int) ([]*model.PopularSearch, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$query",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.searches.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate popular searches: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*model.PopularSearch
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode popular searches: %w", err)
	}

	return results, nil
}
