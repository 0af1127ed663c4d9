package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	propertieserrors "rentio/internal/properties/errors"
	"rentio/pkg/config"
	"rentio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Properties"
)

type PropertyRepository interface {
	Create(ctx context.Context, property *model.Property) error
	FindByID(ctx context.Context, id string) (*model.Property, error)
	IncrementViews(ctx context.Context, id string) error
	Find(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error)
	Count(ctx context.Context, filter *model.PropertyFilter) (int64, error)
	FindIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	Update(ctx context.Context, id string, property *model.Property) error
	UpdateStatus(ctx context.Context, id string, status model.PropertyStatus) error
	Delete(ctx context.Context, id string) error
}

type mongoPropertyRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPropertyRepository(cfg *config.Config) PropertyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPropertyRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPropertyRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPropertyRepository) Create(ctx context.Context, property *model.Property) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	property.CreatedAt = now
	property.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, property)
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		property.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPropertyRepository) FindByID(ctx context.Context, id string) (*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", propertieserrors.ErrInvalidID, id)
	}

	var property model.Property
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, propertieserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find property: %w", err)
	}

	return &property, nil
}

// IncrementViews bumps the view counter atomically so concurrent detail
// requests never lose counts.
func (r *mongoPropertyRepository) IncrementViews(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", propertieserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"views_count": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment property views: %w", err)
	}
	if result.MatchedCount == 0 {
		return propertieserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPropertyRepository) Find(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find properties: %w", err)
	}
	defer cursor.Close(ctx)

	var properties []*model.Property
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}

	return properties, nil
}

func (r *mongoPropertyRepository) Count(ctx context.Context, filter *model.PropertyFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return count, nil
}

// FindIDsByOwner returns the IDs of every property the owner has listed.
func (r *mongoPropertyRepository) FindIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find properties by owner: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode property IDs: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID.Hex())
	}
	return ids, nil
}

func (r *mongoPropertyRepository) Update(ctx context.Context, id string, property *model.Property) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", propertieserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"title":         property.Title,
			"description":   property.Description,
			"property_type": property.PropertyType,
			"location":      property.Location,
			"nightly_price": property.NightlyPrice,
			"rooms":         property.Rooms,
			"area":          property.Area,
			"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	if result.MatchedCount == 0 {
		return propertieserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPropertyRepository) UpdateStatus(ctx context.Context, id string, status model.PropertyStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", propertieserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update property status: %w", err)
	}
	if result.MatchedCount == 0 {
		return propertieserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPropertyRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", propertieserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if result.DeletedCount == 0 {
		return propertieserrors.ErrNotFound
	}
	return nil
}

func buildFilter(filter *model.PropertyFilter) bson.M {
	query := bson.M{}
	if filter == nil {
		return query
	}

	if filter.OwnerID != "" {
		query["owner_id"] = filter.OwnerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.City != "" {
		query["location.city"] = bson.M{"$regex": "^" + regexp.QuoteMeta(filter.City) + "$", "$options": "i"}
	}

	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["nightly_price"] = price
	}

	if filter.Rooms != nil {
		query["rooms"] = *filter.Rooms
	}

	if filter.Query != "" {
		escaped := regexp.QuoteMeta(filter.Query)
		query["$or"] = []bson.M{
			{"title": bson.M{"$regex": escaped, "$options": "i"}},
			{"description": bson.M{"$regex": escaped, "$options": "i"}},
		}
	}

	return query
}
