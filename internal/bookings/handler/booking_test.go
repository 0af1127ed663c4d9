package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentio/pkg/auth"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/logger"
	"rentio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Mock service for testing
type mockBookingService struct {
	createFunc      func(ctx context.Context, actor *auth.Principal, input *model.BookingCreate) (*model.Booking, error)
	getByIDFunc     func(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error)
	listFunc        func(ctx context.Context, actor *auth.Principal, status string, limit int, offset int64) ([]*model.Booking, int64, error)
	updateFunc      func(ctx context.Context, actor *auth.Principal, id string, updates *model.BookingUpdate) (*model.Booking, error)
	confirmFunc     func(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error)
	rejectFunc      func(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error)
	cancelFunc      func(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error)
	completeDueFunc func(ctx context.Context) (int, error)
}

func (m *mockBookingService) Create(ctx context.Context, actor *auth.Principal, input *model.BookingCreate) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, input)
	}
	return &model.Booking{ID: "64b000000000000000000004", Status: model.BookingPending}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, actor, id)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) List(ctx context.Context, actor *auth.Principal, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, actor, status, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) Update(ctx context.Context, actor *auth.Principal, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, actor, id, updates)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) Confirm(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, actor, id)
	}
	return &model.Booking{ID: id, Status: model.BookingConfirmed}, nil
}

func (m *mockBookingService) Reject(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, actor, id)
	}
	return &model.Booking{ID: id, Status: model.BookingRejected}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, actor, id)
	}
	return &model.Booking{ID: id, Status: model.BookingCanceled}, nil
}

func (m *mockBookingService) CompleteDue(ctx context.Context) (int, error) {
	if m.completeDueFunc != nil {
		return m.completeDueFunc(ctx)
	}
	return 0, nil
}

func newTestRouter(service *mockBookingService) *httprouter.Router {
	log := logger.New(logger.Config{Level: logger.ERROR, Format: logger.JSON, Service: "test"})
	router := httprouter.New()
	NewBookingHandler(service, log).RegisterRoutes(router)
	return router
}

func authed(r *http.Request) *http.Request {
	principal := &auth.Principal{UserID: "64b000000000000000000002", Role: model.RoleTenant}
	return r.WithContext(auth.WithPrincipal(r.Context(), principal))
}

func TestCreateHandler(t *testing.T) {
	var captured *model.BookingCreate
	service := &mockBookingService{
		createFunc: func(ctx context.Context, actor *auth.Principal, input *model.BookingCreate) (*model.Booking, error) {
			captured = input
			return &model.Booking{ID: "64b000000000000000000004", Status: model.BookingPending}, nil
		},
	}
	router := newTestRouter(service)

	body := `{"property_id":"64b000000000000000000001","check_in":"2026-10-01","check_out":"2026-10-04","guests_count":2}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured == nil || captured.CheckIn != "2026-10-01" || captured.GuestsCount != 2 {
		t.Errorf("unexpected decoded input: %+v", captured)
	}

	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Data.Status != model.BookingPending {
		t.Errorf("expected pending booking in envelope, got %s", resp.Data.Status)
	}
}

func TestCreateHandler_MalformedBody(t *testing.T) {
	router := newTestRouter(&mockBookingService{})

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json")))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreateHandler_ServiceErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", apperrors.Conflict("dates taken"), http.StatusConflict, apperrors.CodeConflict},
		{"forbidden", apperrors.Forbidden("own property"), http.StatusForbidden, apperrors.CodeForbidden},
		{"unauthorized", apperrors.Unauthorized("no session"), http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"validation", apperrors.ValidationField("check_in", apperrors.ReasonPastCheckInDate, "past"), http.StatusBadRequest, apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockBookingService{
				createFunc: func(ctx context.Context, actor *auth.Principal, input *model.BookingCreate) (*model.Booking, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(service)

			body := `{"property_id":"64b000000000000000000001","check_in":"2026-10-01","check_out":"2026-10-04"}`
			req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestTransitionRoutes(t *testing.T) {
	var confirmID, rejectID, cancelID string
	service := &mockBookingService{
		confirmFunc: func(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
			confirmID = id
			return &model.Booking{ID: id, Status: model.BookingConfirmed}, nil
		},
		rejectFunc: func(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
			rejectID = id
			return &model.Booking{ID: id, Status: model.BookingRejected}, nil
		},
		cancelFunc: func(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
			cancelID = id
			return &model.Booking{ID: id, Status: model.BookingCanceled}, nil
		},
	}
	router := newTestRouter(service)

	for _, action := range []string{"confirm", "reject", "cancel"} {
		req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/64b000000000000000000004/"+action, nil))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", action, rec.Code, rec.Body.String())
		}
	}

	for name, id := range map[string]string{"confirm": confirmID, "reject": rejectID, "cancel": cancelID} {
		if id != "64b000000000000000000004" {
			t.Errorf("%s: expected booking ID to reach the service, got %q", name, id)
		}
	}
}

func TestListHandler_PassesPaginationAndStatus(t *testing.T) {
	var capturedStatus string
	var capturedLimit int
	var capturedOffset int64
	service := &mockBookingService{
		listFunc: func(ctx context.Context, actor *auth.Principal, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
			capturedStatus = status
			capturedLimit = limit
			capturedOffset = offset
			return []*model.Booking{{ID: "64b000000000000000000004"}}, 7, nil
		},
	}
	router := newTestRouter(service)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/bookings?status=pending&limit=5&offset=10", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if capturedStatus != "pending" || capturedLimit != 5 || capturedOffset != 10 {
		t.Errorf("unexpected query passthrough: status=%q limit=%d offset=%d", capturedStatus, capturedLimit, capturedOffset)
	}

	var resp struct {
		TotalCount int64 `json:"total_count"`
		Limit      int   `json:"limit"`
		Offset     int64 `json:"offset"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.TotalCount != 7 || resp.Limit != 5 || resp.Offset != 10 {
		t.Errorf("unexpected pagination envelope: %+v", resp)
	}
}

func TestUpdateHandler_DecodesPartialPayload(t *testing.T) {
	var captured *model.BookingUpdate
	service := &mockBookingService{
		updateFunc: func(ctx context.Context, actor *auth.Principal, id string, updates *model.BookingUpdate) (*model.Booking, error) {
			captured = updates
			return &model.Booking{ID: id}, nil
		},
	}
	router := newTestRouter(service)

	req := authed(httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/id/64b000000000000000000004", strings.NewReader(`{"guests_count":3}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured == nil || captured.GuestsCount == nil || *captured.GuestsCount != 3 {
		t.Errorf("expected guests_count pointer 3, got %+v", captured)
	}
	if captured.CheckIn != nil || captured.Status != "" {
		t.Errorf("untouched fields must stay unset, got %+v", captured)
	}
}
