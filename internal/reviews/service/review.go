package service

import (
	"context"
	"errors"

	propertieserrors "rentio/internal/properties/errors"
	reviewserrors "rentio/internal/reviews/errors"
	"rentio/internal/reviews/repository"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/model"
	"rentio/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

// PropertyReader is the slice of the property store reviews need to verify
// the reviewed property exists.
type PropertyReader interface {
	FindByID(ctx context.Context, id string) (*model.Property, error)
}

type ReviewService interface {
	Create(ctx context.Context, actor *auth.Principal, input *model.ReviewCreate) (*model.Review, error)
	ListByProperty(ctx context.Context, propertyID string, minRating *int, limit int, offset int64) (*model.PropertyReviews, error)
	Update(ctx context.Context, actor *auth.Principal, id string, updates *model.ReviewUpdate) (*model.Review, error)
	Delete(ctx context.Context, actor *auth.Principal, id string) error
}

type reviewService struct {
	repo       repository.ReviewRepository
	properties PropertyReader
	validate   *validator.Validate
	cfg        *config.Config
}

func NewReviewService(repo repository.ReviewRepository, properties PropertyReader, cfg *config.Config) ReviewService {
	return &reviewService{
		repo:       repo,
		properties: properties,
		validate:   validator.New(),
		cfg:        cfg,
	}
}

func (s *reviewService) Create(ctx context.Context, actor *auth.Principal, input *model.ReviewCreate) (*model.Review, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if !actor.IsTenant() {
		return nil, apperrors.Forbidden("Only tenants can leave reviews")
	}

	input.Comment = sanitizer.TrimAndNormalize(input.Comment)
	if err := s.validate.Struct(input); err != nil {
		s.cfg.Log.Warn("Review validation failed", "error", err)
		return nil, apperrors.Validation("Invalid review input", map[string]any{"error": err.Error()})
	}

	if _, err := s.properties.FindByID(ctx, input.PropertyID); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", input.PropertyID)
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve property", err)
	}

	review := &model.Review{
		PropertyID: input.PropertyID,
		UserID:     actor.UserID,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, reviewserrors.ErrDuplicateReview) {
			return nil, apperrors.Conflict("You have already reviewed this property")
		}
		s.cfg.Log.Error("Failed to create review", "error", err)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.cfg.Log.Info("Review created successfully",
		"id", review.ID,
		"property_id", review.PropertyID,
		"rating", review.Rating,
	)
	return review, nil
}

func (s *reviewService) ListByProperty(ctx context.Context, propertyID string, minRating *int, limit int, offset int64) (*model.PropertyReviews, error) {
	if propertyID == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}
	if minRating != nil && (*minRating < 1 || *minRating > 5) {
		return nil, apperrors.InvalidInput("min_rating must be between 1 and 5")
	}

	count, err := s.repo.CountByProperty(ctx, propertyID, minRating)
	if err != nil {
		s.cfg.Log.Error("Failed to count reviews", "property_id", propertyID, "error", err)
		return nil, apperrors.Internal("Failed to count reviews", err)
	}

	reviews, err := s.repo.FindByProperty(ctx, propertyID, minRating, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list reviews", "property_id", propertyID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reviews", err)
	}

	average, err := s.repo.AverageRating(ctx, propertyID)
	if err != nil {
		s.cfg.Log.Error("Failed to compute average rating", "property_id", propertyID, "error", err)
		return nil, apperrors.Internal("Failed to compute average rating", err)
	}

	return &model.PropertyReviews{
		Count:         count,
		AverageRating: average,
		Results:       reviews,
	}, nil
}

func (s *reviewService) Update(ctx context.Context, actor *auth.Principal, id string, updates *model.ReviewUpdate) (*model.Review, error) {
	review, err := s.authorizeAuthor(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.validate.Struct(updates); err != nil {
		s.cfg.Log.Warn("Review update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if updates.Rating != nil {
		review.Rating = *updates.Rating
	}
	if updates.Comment != nil {
		review.Comment = sanitizer.TrimAndNormalize(*updates.Comment)
	}

	if err := s.repo.Update(ctx, id, review); err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Review", id)
		}
		s.cfg.Log.Error("Failed to update review", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update review", err)
	}

	s.cfg.Log.Info("Review updated successfully", "id", id)
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *auth.Principal, id string) error {
	if _, err := s.authorizeAuthor(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Review", id)
		}
		s.cfg.Log.Error("Failed to delete review", "id", id, "error", err)
		return apperrors.Internal("Failed to delete review", err)
	}

	s.cfg.Log.Info("Review deleted successfully", "id", id)
	return nil
}

func (s *reviewService) authorizeAuthor(ctx context.Context, actor *auth.Principal, id string) (*model.Review, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Review ID cannot be empty")
	}

	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Review", id)
		}
		if errors.Is(err, reviewserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid review ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve review", err)
	}

	if review.UserID != actor.UserID {
		return nil, apperrors.Forbidden("Only the review author can perform this action")
	}

	return review, nil
}
