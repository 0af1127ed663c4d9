package service

import (
	"context"
	"errors"

	propertieserrors "rentio/internal/properties/errors"
	"rentio/internal/properties/repository"
	"rentio/internal/properties/validator"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/model"
	"rentio/pkg/sanitizer"
)

// ActivityRecorder receives best-effort view and search activity. Failures
// are logged and never surfaced to the caller.
type ActivityRecorder interface {
	RecordView(ctx context.Context, userID, propertyID string) error
	RecordSearch(ctx context.Context, userID, query string) error
}

type PropertyService interface {
	Create(ctx context.Context, actor *auth.Principal, property *model.Property) error
	GetByID(ctx context.Context, viewer *auth.Principal, id string) (*model.Property, error)
	List(ctx context.Context, viewer *auth.Principal, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, int64, error)
	ListOwn(ctx context.Context, actor *auth.Principal, limit int, offset int64) ([]*model.Property, int64, error)
	Update(ctx context.Context, actor *auth.Principal, id string, updates *model.PropertyUpdate) (*model.Property, error)
	ToggleStatus(ctx context.Context, actor *auth.Principal, id string) (*model.Property, error)
	Delete(ctx context.Context, actor *auth.Principal, id string) error
}

type propertyService struct {
	repo      repository.PropertyRepository
	validator *validator.PropertyValidator
	activity  ActivityRecorder
	cfg       *config.Config
}

func NewPropertyService(
	repo repository.PropertyRepository,
	validator *validator.PropertyValidator,
	activity ActivityRecorder,
	cfg *config.Config,
) PropertyService {
	return &propertyService{
		repo:      repo,
		validator: validator,
		activity:  activity,
		cfg:       cfg,
	}
}

func (s *propertyService) Create(ctx context.Context, actor *auth.Principal, property *model.Property) error {
	if actor == nil {
		return apperrors.Unauthorized("Authentication required")
	}
	if !actor.IsLandlord() {
		return apperrors.Forbidden("Only landlords can create properties")
	}

	property.OwnerID = actor.UserID
	property.ViewsCount = 0
	if property.Status == "" {
		property.Status = model.PropertyActive
	}
	s.sanitize(property)

	if err := s.validator.Validate(property); err != nil {
		s.cfg.Log.Warn("Property validation failed", "error", err)
		return apperrors.Validation("Property validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, property); err != nil {
		s.cfg.Log.Error("Failed to create property", "error", err)
		return apperrors.Internal("Failed to create property", err)
	}

	s.cfg.Log.Info("Property created successfully",
		"id", property.ID,
		"owner_id", property.OwnerID,
		"city", property.Location.City,
	)
	return nil
}

func (s *propertyService) GetByID(ctx context.Context, viewer *auth.Principal, id string) (*model.Property, error) {
	property, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.cfg.Log.Warn("Failed to increment property views", "id", id, "error", err)
	} else {
		property.ViewsCount++
	}

	if viewer != nil && s.activity != nil {
		if err := s.activity.RecordView(ctx, viewer.UserID, id); err != nil {
			s.cfg.Log.Warn("Failed to record property view", "id", id, "error", err)
		}
	}

	return property, nil
}

func (s *propertyService) List(ctx context.Context, viewer *auth.Principal, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, int64, error) {
	filter.City = sanitizer.NormalizeCity(filter.City)
	filter.Query = sanitizer.TrimAndNormalize(filter.Query)
	// The public catalog only shows active listings; owners see everything
	// through ListOwn.
	filter.Status = model.PropertyActive

	if err := s.validator.ValidateFilter(filter); err != nil {
		return nil, 0, apperrors.Validation("Invalid filter", map[string]any{"error": err.Error()})
	}

	if filter.Query != "" && s.activity != nil {
		userID := ""
		if viewer != nil {
			userID = viewer.UserID
		}
		if err := s.activity.RecordSearch(ctx, userID, filter.Query); err != nil {
			s.cfg.Log.Warn("Failed to record search", "query", filter.Query, "error", err)
		}
	}

	return s.findAndCount(ctx, filter, limit, offset)
}

func (s *propertyService) ListOwn(ctx context.Context, actor *auth.Principal, limit int, offset int64) ([]*model.Property, int64, error) {
	if actor == nil {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}

	filter := &model.PropertyFilter{OwnerID: actor.UserID}
	return s.findAndCount(ctx, filter, limit, offset)
}

func (s *propertyService) Update(ctx context.Context, actor *auth.Principal, id string, updates *model.PropertyUpdate) (*model.Property, error) {
	property, err := s.authorizeOwner(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Property update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeUpdates(property, updates)
	s.sanitize(merged)

	if err := s.validator.Validate(merged); err != nil {
		return nil, apperrors.Validation("Property validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		s.cfg.Log.Error("Failed to update property", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update property", err)
	}

	s.cfg.Log.Info("Property updated successfully", "id", id)
	return merged, nil
}

func (s *propertyService) ToggleStatus(ctx context.Context, actor *auth.Principal, id string) (*model.Property, error) {
	property, err := s.authorizeOwner(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	next := property.Status.Toggle()
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		s.cfg.Log.Error("Failed to toggle property status", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to toggle property status", err)
	}

	property.Status = next
	s.cfg.Log.Info("Property status toggled", "id", id, "status", next)
	return property, nil
}

func (s *propertyService) Delete(ctx context.Context, actor *auth.Principal, id string) error {
	if _, err := s.authorizeOwner(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Property", id)
		}
		s.cfg.Log.Error("Failed to delete property", "id", id, "error", err)
		return apperrors.Internal("Failed to delete property", err)
	}

	s.cfg.Log.Info("Property deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *propertyService) findByID(ctx context.Context, id string) (*model.Property, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve property", err)
	}

	return property, nil
}

func (s *propertyService) authorizeOwner(ctx context.Context, actor *auth.Principal, id string) (*model.Property, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	property, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if property.OwnerID != actor.UserID {
		return nil, apperrors.Forbidden("Only the property owner can perform this action")
	}

	return property, nil
}

func (s *propertyService) findAndCount(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, int64, error) {
	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to count properties", "error", err)
		return nil, 0, apperrors.Internal("Failed to count properties", err)
	}

	properties, err := s.repo.Find(ctx, filter, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list properties", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve properties", err)
	}

	return properties, count, nil
}

func (s *propertyService) sanitize(p *model.Property) {
	p.Title = sanitizer.NormalizeTitle(p.Title)
	p.Description = sanitizer.TrimAndNormalize(p.Description)
	p.PropertyType = sanitizer.TrimAndNormalize(p.PropertyType)
	p.Location.City = sanitizer.NormalizeCity(p.Location.City)
	p.Location.District = sanitizer.TrimAndNormalize(p.Location.District)
	p.Location.Address = sanitizer.TrimAndNormalize(p.Location.Address)
}

func (s *propertyService) mergeUpdates(existing *model.Property, updates *model.PropertyUpdate) *model.Property {
	merged := *existing

	if updates.Title != nil {
		merged.Title = *updates.Title
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.PropertyType != nil {
		merged.PropertyType = *updates.PropertyType
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.NightlyPrice != nil {
		merged.NightlyPrice = *updates.NightlyPrice
	}
	if updates.Rooms != nil {
		merged.Rooms = *updates.Rooms
	}
	if updates.Area != nil {
		merged.Area = *updates.Area
	}

	return &merged
}
