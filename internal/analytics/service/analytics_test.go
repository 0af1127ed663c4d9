package service

import (
	"context"
	"testing"
	"time"

	"rentio/pkg/auth"
	"rentio/pkg/config"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/logger"
	"rentio/pkg/model"
)

// Mock repository for testing
type mockHistoryRepository struct {
	upsertViewFunc      func(ctx context.Context, userID, propertyID string) error
	findViewsFunc       func(ctx context.Context, userID string, limit int, offset int64) ([]*model.ViewHistory, error)
	countViewsFunc      func(ctx context.Context, userID string) (int64, error)
	insertSearchFunc    func(ctx context.Context, userID, query string) error
	popularSearchesFunc func(ctx context.Context, since time.Time, limit int) ([]*model.PopularSearch, error)
}

func (m *mockHistoryRepository) UpsertView(ctx context.Context, userID, propertyID string) error {
	if m.upsertViewFunc != nil {
		return m.upsertViewFunc(ctx, userID, propertyID)
	}
	return nil
}

func (m *mockHistoryRepository) FindViewsByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.ViewHistory, error) {
	if m.findViewsFunc != nil {
		return m.findViewsFunc(ctx, userID, limit, offset)
	}
	return []*model.ViewHistory{}, nil
}

func (m *mockHistoryRepository) CountViewsByUser(ctx context.Context, userID string) (int64, error) {
	if m.countViewsFunc != nil {
		return m.countViewsFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockHistoryRepository) InsertSearch(ctx context.Context, userID, query string) error {
	if m.insertSearchFunc != nil {
		return m.insertSearchFunc(ctx, userID, query)
	}
	return nil
}

func (m *mockHistoryRepository) PopularSearches(ctx context.Context, since time.Time, limit int) ([]*model.PopularSearch, error) {
	if m.popularSearchesFunc != nil {
		return m.popularSearchesFunc(ctx, since, limit)
	}
	return []*model.PopularSearch{}, nil
}

func newTestService(repo *mockHistoryRepository) AnalyticsService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.JSON, Service: "test"}),
	}
	return NewAnalyticsService(repo, cfg)
}

func TestRecordSearch_NormalizesQuery(t *testing.T) {
	var captured string
	repo := &mockHistoryRepository{
		insertSearchFunc: func(ctx context.Context, userID, query string) error {
			captured = query
			return nil
		},
	}
	service := newTestService(repo)

	if err := service.RecordSearch(context.Background(), "u1", "  Downtown   LOFT "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured != "downtown loft" {
		t.Errorf("expected lowercased collapsed query, got %q", captured)
	}
}

func TestRecordSearch_EmptyQuerySkipped(t *testing.T) {
	inserted := false
	repo := &mockHistoryRepository{
		insertSearchFunc: func(ctx context.Context, userID, query string) error {
			inserted = true
			return nil
		},
	}
	service := newTestService(repo)

	if err := service.RecordSearch(context.Background(), "u1", "   "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted {
		t.Error("blank queries must not be stored")
	}
}

func TestRecordView_RequiresIDs(t *testing.T) {
	service := newTestService(&mockHistoryRepository{})

	for _, pair := range [][2]string{{"", "p1"}, {"u1", ""}, {"", ""}} {
		err := service.RecordView(context.Background(), pair[0], pair[1])
		if appErr, ok := err.(*apperrors.AppError); !ok || appErr.Code != apperrors.CodeInvalidInput {
			t.Errorf("(%q, %q): expected invalid input, got %v", pair[0], pair[1], err)
		}
	}
}

func TestViewHistory_ScopedToActor(t *testing.T) {
	var captured string
	repo := &mockHistoryRepository{
		findViewsFunc: func(ctx context.Context, userID string, limit int, offset int64) ([]*model.ViewHistory, error) {
			captured = userID
			return []*model.ViewHistory{{UserID: userID}}, nil
		},
		countViewsFunc: func(ctx context.Context, userID string) (int64, error) {
			return 1, nil
		},
	}
	service := newTestService(repo)

	actor := &auth.Principal{UserID: "64b000000000000000000002", Role: model.RoleTenant}
	views, count, err := service.ViewHistory(context.Background(), actor, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured != actor.UserID {
		t.Errorf("history must be scoped to the caller, got %q", captured)
	}
	if count != 1 || len(views) != 1 {
		t.Errorf("unexpected result: %d views, count %d", len(views), count)
	}

	_, _, err = service.ViewHistory(context.Background(), nil, 10, 0)
	if appErr, ok := err.(*apperrors.AppError); !ok || appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestPopularSearches_WindowAndLimit(t *testing.T) {
	var capturedSince time.Time
	var capturedLimit int
	repo := &mockHistoryRepository{
		popularSearchesFunc: func(ctx context.Context, since time.Time, limit int) ([]*model.PopularSearch, error) {
			capturedSince = since
			capturedLimit = limit
			return []*model.PopularSearch{{Query: "loft", Count: 12}}, nil
		},
	}
	service := newTestService(repo)

	results, err := service.PopularSearches(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Query != "loft" {
		t.Errorf("unexpected results: %+v", results)
	}
	if capturedLimit != popularSearchLimit {
		t.Errorf("expected limit %d, got %d", popularSearchLimit, capturedLimit)
	}

	wantSince := time.Now().UTC().Add(-popularSearchWindow)
	if capturedSince.Before(wantSince.Add(-time.Minute)) || capturedSince.After(wantSince.Add(time.Minute)) {
		t.Errorf("expected a 30 day window, got since=%v", capturedSince)
	}
}
