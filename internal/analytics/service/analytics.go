package service

import (
	"context"
	"time"

	"rentio/internal/analytics/repository"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/model"
	"rentio/pkg/sanitizer"
)

const (
	popularSearchWindow = 30 * 24 * time.Hour
	popularSearchLimit  = 10
)

type AnalyticsService interface {
	RecordView(ctx context.Context, userID, propertyID string) error
	RecordSearch(ctx context.Context, userID, query string) error
	ViewHistory(ctx context.Context, actor *auth.Principal, limit int, offset int64) ([]*model.ViewHistory, int64, error)
	PopularSearches(ctx context.Context) ([]*model.PopularSearch, error)
}

type analyticsService struct {
	repo repository.HistoryRepository
	cfg  *config.Config
}

func NewAnalyticsService(repo repository.HistoryRepository, cfg *config.Config) AnalyticsService {
	return &analyticsService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *analyticsService) RecordView(ctx context.Context, userID, propertyID string) error {
	if userID == "" || propertyID == "" {
		return apperrors.InvalidInput("User ID and property ID are required")
	}
	return s.repo.UpsertView(ctx, userID, propertyID)
}

func (s *analyticsService) RecordSearch(ctx context.Context, userID, query string) error {
	query = sanitizer.NormalizeQuery(query)
	if query == "" {
		return nil
	}
	return s.repo.InsertSearch(ctx, userID, query)
}

func (s *analyticsService) ViewHistory(ctx context.Context, actor *auth.Principal, limit int, offset int64) ([]*model.ViewHistory, int64, error) {
	if actor == nil {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}

	count, err := s.repo.CountViewsByUser(ctx, actor.UserID)
	if err != nil {
		s.cfg.Log.Error("Failed to count view history", "user_id", actor.UserID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count view history", err)
	}

	views, err := s.repo.FindViewsByUser(ctx, actor.UserID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list view history", "user_id", actor.UserID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve view history", err)
	}

	return views, count, nil
}

func (s *analyticsService) PopularSearches(ctx context.Context) ([]*model.PopularSearch, error) {
	since := time.Now().UTC().Add(-popularSearchWindow)

	results, err := s.repo.PopularSearches(ctx, since, popularSearchLimit)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate popular searches", "error", err)
		return nil, apperrors.Internal("Failed to retrieve popular searches", err)
	}

	return results, nil
}
