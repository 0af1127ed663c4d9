package service

import (
	"context"
	"testing"
	"time"

	"rentio/internal/bookings/repository"
	"rentio/internal/bookings/validator"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	mongotx "rentio/pkg/db/mongo"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/kafka"
	"rentio/pkg/logger"
	"rentio/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testPropertyID = "64b000000000000000000001"
	testTenantID   = "64b000000000000000000002"
	testLandlordID = "64b000000000000000000003"
	testBookingID  = "64b000000000000000000004"
)

// Mock repositories for testing
type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findFunc            func(ctx context.Context, filter *repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	countFunc           func(ctx context.Context, filter *repository.BookingFilter) (int64, error)
	findOverlappingFunc func(ctx context.Context, propertyID string, checkIn, checkOut time.Time, excludeID string) ([]*model.Booking, error)
	updateFunc          func(ctx context.Context, id string, booking *model.Booking) error
	updateStatusFunc    func(ctx context.Context, id string, status model.BookingStatus) error
	findCompletableFunc func(ctx context.Context, before time.Time, limit int) ([]*model.Booking, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = testBookingID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepository) Find(ctx context.Context, filter *repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, filter *repository.BookingFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time, excludeID string) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, propertyID, checkIn, checkOut, excludeID)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, booking)
	}
	return nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockBookingRepository) FindCompletable(ctx context.Context, before time.Time, limit int) ([]*model.Booking, error) {
	if m.findCompletableFunc != nil {
		return m.findCompletableFunc(ctx, before, limit)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockHoldRepository struct {
	createFunc func(ctx context.Context, hold *model.BookingHold) (*model.BookingHold, error)
	deleteFunc func(ctx context.Context, holdID string) error
}

func (m *mockHoldRepository) Create(ctx context.Context, hold *model.BookingHold) (*model.BookingHold, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, hold)
	}
	return hold, nil
}

func (m *mockHoldRepository) Delete(ctx context.Context, holdID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, holdID)
	}
	return nil
}

type mockPropertyReader struct {
	findByIDFunc       func(ctx context.Context, id string) (*model.Property, error)
	findIDsByOwnerFunc func(ctx context.Context, ownerID string) ([]string, error)
}

func (m *mockPropertyReader) FindByID(ctx context.Context, id string) (*model.Property, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return activeProperty(), nil
}

func (m *mockPropertyReader) FindIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	if m.findIDsByOwnerFunc != nil {
		return m.findIDsByOwnerFunc(ctx, ownerID)
	}
	return []string{}, nil
}

type mockPublisher struct {
	messages []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func newTestConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
		BookingHoldTTL: time.Minute,
	}
}

func newTestService(repo *mockBookingRepository, holds *mockHoldRepository, properties *mockPropertyReader, publisher EventPublisher) BookingService {
	cfg := newTestConfig()
	return NewBookingService(repo, holds, properties, validator.NewBookingValidator(cfg.Log), publisher, cfg)
}

func activeProperty() *model.Property {
	return &model.Property{
		ID:           testPropertyID,
		OwnerID:      testLandlordID,
		Title:        "Sunny flat",
		NightlyPrice: 100,
		Status:       model.PropertyActive,
	}
}

func tenant() *auth.Principal {
	return &auth.Principal{UserID: testTenantID, Role: model.RoleTenant}
}

func landlord() *auth.Principal {
	return &auth.Principal{UserID: testLandlordID, Role: model.RoleLandlord}
}

func futureDate(days int) string {
	return model.Today().AddDate(0, 0, days).Format(model.DateLayout)
}

func appErrFrom(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	return appErr
}

func TestCreate_ComputesPriceFromNights(t *testing.T) {
	repo := &mockBookingRepository{}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	booking, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(10),
		CheckOut:   futureDate(13),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.TotalPrice != 300 {
		t.Errorf("expected total price 300 for 3 nights at 100, got %v", booking.TotalPrice)
	}
	if booking.Status != model.BookingPending {
		t.Errorf("expected status pending, got %s", booking.Status)
	}
	if booking.GuestsCount != 1 {
		t.Errorf("expected guests count to default to 1, got %d", booking.GuestsCount)
	}
	if booking.TenantID != testTenantID {
		t.Errorf("expected tenant ID from principal, got %s", booking.TenantID)
	}
}

func TestCreate_DateValidation(t *testing.T) {
	tests := []struct {
		name       string
		checkIn    string
		checkOut   string
		wantReason string
	}{
		{
			name:       "check-out before check-in",
			checkIn:    futureDate(10),
			checkOut:   futureDate(8),
			wantReason: apperrors.ReasonInvalidDateRange,
		},
		{
			name:       "zero nights",
			checkIn:    futureDate(10),
			checkOut:   futureDate(10),
			wantReason: apperrors.ReasonInvalidDateRange,
		},
		{
			name:       "check-in in the past",
			checkIn:    futureDate(-2),
			checkOut:   futureDate(3),
			wantReason: apperrors.ReasonPastCheckInDate,
		},
		{
			// Range shape is reported before the past check.
			name:       "past and inverted",
			checkIn:    futureDate(-2),
			checkOut:   futureDate(-5),
			wantReason: apperrors.ReasonInvalidDateRange,
		},
	}

	service := newTestService(&mockBookingRepository{}, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
				PropertyID: testPropertyID,
				CheckIn:    tt.checkIn,
				CheckOut:   tt.checkOut,
			})

			appErr := appErrFrom(t, err)
			if appErr.Code != apperrors.CodeValidation {
				t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
			}
			if got := appErr.Details["reason"]; got != tt.wantReason {
				t.Errorf("expected reason %q, got %v", tt.wantReason, got)
			}
		})
	}
}

func TestCreate_SelfBookingForbidden(t *testing.T) {
	properties := &mockPropertyReader{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			p := activeProperty()
			p.OwnerID = testTenantID
			return p, nil
		},
	}
	service := newTestService(&mockBookingRepository{}, &mockHoldRepository{}, properties, nil)

	_, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(5),
		CheckOut:   futureDate(7),
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
	if got := appErr.Details["reason"]; got != apperrors.ReasonSelfBookingForbidden {
		t.Errorf("expected reason %q, got %v", apperrors.ReasonSelfBookingForbidden, got)
	}
}

func TestCreate_InactiveProperty(t *testing.T) {
	properties := &mockPropertyReader{
		findByIDFunc: func(ctx context.Context, id string) (*model.Property, error) {
			p := activeProperty()
			p.Status = model.PropertyInactive
			return p, nil
		},
	}
	service := newTestService(&mockBookingRepository{}, &mockHoldRepository{}, properties, nil)

	_, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(5),
		CheckOut:   futureDate(7),
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
	if got := appErr.Details["reason"]; got != apperrors.ReasonPropertyInactive {
		t.Errorf("expected reason %q, got %v", apperrors.ReasonPropertyInactive, got)
	}
}

func TestCreate_OverlapConflict(t *testing.T) {
	created := false
	repo := &mockBookingRepository{
		findOverlappingFunc: func(ctx context.Context, propertyID string, checkIn, checkOut time.Time, excludeID string) ([]*model.Booking, error) {
			return []*model.Booking{{
				ID:       testBookingID,
				CheckIn:  model.Today().AddDate(0, 0, 4),
				CheckOut: model.Today().AddDate(0, 0, 8),
				Status:   model.BookingConfirmed,
			}}, nil
		},
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			created = true
			return nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	_, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(5),
		CheckOut:   futureDate(7),
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
	if got := appErr.Details["field"]; got != "check_in" {
		t.Errorf("expected field check_in, got %v", got)
	}
	if got := appErr.Details["reason"]; got != apperrors.ReasonDateRangeConflict {
		t.Errorf("expected reason %q, got %v", apperrors.ReasonDateRangeConflict, got)
	}
	if created {
		t.Error("booking must not be inserted when dates overlap")
	}
}

func TestCreate_ConcurrentHoldConflict(t *testing.T) {
	holds := &mockHoldRepository{
		createFunc: func(ctx context.Context, hold *model.BookingHold) (*model.BookingHold, error) {
			return nil, mongo.WriteException{
				WriteErrors: mongo.WriteErrors{{Code: 11000}},
			}
		},
	}
	service := newTestService(&mockBookingRepository{}, holds, &mockPropertyReader{}, nil)

	_, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(5),
		CheckOut:   futureDate(7),
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s when hold is taken, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestCreate_HoldsEachNight(t *testing.T) {
	var heldIDs []string
	holds := &mockHoldRepository{
		createFunc: func(ctx context.Context, hold *model.BookingHold) (*model.BookingHold, error) {
			heldIDs = append(heldIDs, hold.ID)
			return hold, nil
		},
	}
	service := newTestService(&mockBookingRepository{}, holds, &mockPropertyReader{}, nil)

	_, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(5),
		CheckOut:   futureDate(8),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(heldIDs) != 3 {
		t.Fatalf("expected one hold per night for 3 nights, got %d: %v", len(heldIDs), heldIDs)
	}
	for i, heldID := range heldIDs {
		want := "booking_hold_" + testPropertyID + "_" + futureDate(5+i)
		if heldID != want {
			t.Errorf("hold %d: expected %q, got %q", i, want, heldID)
		}
	}
}

func TestCreate_OverlappingRangesContendOnHolds(t *testing.T) {
	// Another in-flight request holds night 6; this range shares that night
	// even though its check-in and check-out differ.
	held := map[string]bool{
		"booking_hold_" + testPropertyID + "_" + futureDate(6): true,
	}
	var released []string
	holds := &mockHoldRepository{
		createFunc: func(ctx context.Context, hold *model.BookingHold) (*model.BookingHold, error) {
			if held[hold.ID] {
				return nil, mongo.WriteException{
					WriteErrors: mongo.WriteErrors{{Code: 11000}},
				}
			}
			held[hold.ID] = true
			return hold, nil
		},
		deleteFunc: func(ctx context.Context, holdID string) error {
			released = append(released, holdID)
			delete(held, holdID)
			return nil
		},
	}
	service := newTestService(&mockBookingRepository{}, holds, &mockPropertyReader{}, nil)

	_, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(5),
		CheckOut:   futureDate(8),
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s when ranges share a night, got %s", apperrors.CodeConflict, appErr.Code)
	}

	// The night 5 hold acquired before the contention must be rolled back.
	want := "booking_hold_" + testPropertyID + "_" + futureDate(5)
	if len(released) != 1 || released[0] != want {
		t.Errorf("expected rollback of %q, got %v", want, released)
	}
}

func TestCreate_AccessControl(t *testing.T) {
	service := newTestService(&mockBookingRepository{}, &mockHoldRepository{}, &mockPropertyReader{}, nil)
	input := &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(5),
		CheckOut:   futureDate(7),
	}

	_, err := service.Create(context.Background(), nil, input)
	if appErr := appErrFrom(t, err); appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("anonymous: expected code %s, got %s", apperrors.CodeUnauthorized, appErr.Code)
	}

	_, err = service.Create(context.Background(), landlord(), input)
	if appErr := appErrFrom(t, err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("landlord: expected code %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func storedBooking(status model.BookingStatus) *model.Booking {
	return &model.Booking{
		ID:          testBookingID,
		PropertyID:  testPropertyID,
		TenantID:    testTenantID,
		CheckIn:     model.Today().AddDate(0, 0, 5),
		CheckOut:    model.Today().AddDate(0, 0, 7),
		GuestsCount: 2,
		Status:      status,
		TotalPrice:  200,
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name     string
		stored   model.BookingStatus
		actor    *auth.Principal
		run      func(s BookingService, actor *auth.Principal) (*model.Booking, error)
		wantCode string
		wantTo   model.BookingStatus
	}{
		{
			name:   "owner confirms pending",
			stored: model.BookingPending,
			actor:  landlord(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Confirm(context.Background(), actor, testBookingID)
			},
			wantTo: model.BookingConfirmed,
		},
		{
			name:   "owner rejects pending",
			stored: model.BookingPending,
			actor:  landlord(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Reject(context.Background(), actor, testBookingID)
			},
			wantTo: model.BookingRejected,
		},
		{
			name:   "tenant cannot confirm",
			stored: model.BookingPending,
			actor:  tenant(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Confirm(context.Background(), actor, testBookingID)
			},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:   "tenant cancels pending",
			stored: model.BookingPending,
			actor:  tenant(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Cancel(context.Background(), actor, testBookingID)
			},
			wantTo: model.BookingCanceled,
		},
		{
			name:   "tenant cancels confirmed",
			stored: model.BookingConfirmed,
			actor:  tenant(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Cancel(context.Background(), actor, testBookingID)
			},
			wantTo: model.BookingCanceled,
		},
		{
			name:   "owner cannot cancel",
			stored: model.BookingConfirmed,
			actor:  landlord(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Cancel(context.Background(), actor, testBookingID)
			},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:   "confirm after rejection",
			stored: model.BookingRejected,
			actor:  landlord(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Confirm(context.Background(), actor, testBookingID)
			},
			wantCode: apperrors.CodeInvalidTransition,
		},
		{
			name:   "cancel a canceled booking",
			stored: model.BookingCanceled,
			actor:  tenant(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Cancel(context.Background(), actor, testBookingID)
			},
			wantCode: apperrors.CodeInvalidTransition,
		},
		{
			name:   "cancel a completed booking",
			stored: model.BookingCompleted,
			actor:  tenant(),
			run: func(s BookingService, actor *auth.Principal) (*model.Booking, error) {
				return s.Cancel(context.Background(), actor, testBookingID)
			},
			wantCode: apperrors.CodeInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
					return storedBooking(tt.stored), nil
				},
			}
			service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

			booking, err := tt.run(service, tt.actor)

			if tt.wantCode != "" {
				appErr := appErrFrom(t, err)
				if appErr.Code != tt.wantCode {
					t.Errorf("expected code %s, got %s", tt.wantCode, appErr.Code)
				}
				if tt.wantCode == apperrors.CodeInvalidTransition {
					if got := appErr.Details["current_status"]; got != tt.stored.String() {
						t.Errorf("expected current_status %q in details, got %v", tt.stored, got)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if booking.Status != tt.wantTo {
				t.Errorf("expected status %s, got %s", tt.wantTo, booking.Status)
			}
		})
	}
}

func TestUpdate_CompletedStatusRequestForbidden(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return storedBooking(model.BookingConfirmed), nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	// Even the owner cannot mark a booking completed; the sweep owns that
	// transition.
	_, err := service.Update(context.Background(), landlord(), testBookingID, &model.BookingUpdate{
		Status: model.BookingCompleted.String(),
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestUpdate_StatusChangeIgnoresOtherFields(t *testing.T) {
	var updated bool
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return storedBooking(model.BookingPending), nil
		},
		updateFunc: func(ctx context.Context, id string, booking *model.Booking) error {
			updated = true
			return nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	guests := 5
	booking, err := service.Update(context.Background(), landlord(), testBookingID, &model.BookingUpdate{
		Status:      model.BookingConfirmed.String(),
		GuestsCount: &guests,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.BookingConfirmed {
		t.Errorf("expected status confirmed, got %s", booking.Status)
	}
	if booking.GuestsCount != 2 {
		t.Errorf("guests count must stay at 2 during a transition, got %d", booking.GuestsCount)
	}
	if updated {
		t.Error("transition must go through UpdateStatus, not a full document update")
	}
}

func TestUpdate_StatusChangeOwnerOnly(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return storedBooking(model.BookingPending), nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	// Tenants cancel through the cancel endpoint, not a status patch.
	_, err := service.Update(context.Background(), tenant(), testBookingID, &model.BookingUpdate{
		Status: model.BookingCanceled.String(),
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestUpdate_OnlyPendingEditable(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return storedBooking(model.BookingConfirmed), nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	guests := 3
	_, err := service.Update(context.Background(), tenant(), testBookingID, &model.BookingUpdate{
		GuestsCount: &guests,
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestUpdate_DateChangeRecomputesPrice(t *testing.T) {
	var saved *model.Booking
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return storedBooking(model.BookingPending), nil
		},
		updateFunc: func(ctx context.Context, id string, booking *model.Booking) error {
			saved = booking
			return nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	checkOut := futureDate(10)
	booking, err := service.Update(context.Background(), tenant(), testBookingID, &model.BookingUpdate{
		CheckOut: &checkOut,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 5 nights at 100 after extending checkout from day 7 to day 10.
	if booking.TotalPrice != 500 {
		t.Errorf("expected recomputed price 500, got %v", booking.TotalPrice)
	}
	if saved == nil {
		t.Fatal("expected the merged booking to be persisted")
	}
}

func TestUpdate_OnlyTenantEditsDetails(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return storedBooking(model.BookingPending), nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	guests := 3
	_, err := service.Update(context.Background(), landlord(), testBookingID, &model.BookingUpdate{
		GuestsCount: &guests,
	})

	appErr := appErrFrom(t, err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestGetByID_Scoping(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return storedBooking(model.BookingPending), nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	if _, err := service.GetByID(context.Background(), tenant(), testBookingID); err != nil {
		t.Errorf("tenant should see own booking: %v", err)
	}
	if _, err := service.GetByID(context.Background(), landlord(), testBookingID); err != nil {
		t.Errorf("property owner should see booking: %v", err)
	}

	stranger := &auth.Principal{UserID: "64b0000000000000000000ff", Role: model.RoleTenant}
	_, err := service.GetByID(context.Background(), stranger, testBookingID)
	if appErr := appErrFrom(t, err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s for unrelated caller, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestList_ScopesByRole(t *testing.T) {
	var capturedFilter *repository.BookingFilter
	repo := &mockBookingRepository{
		findFunc: func(ctx context.Context, filter *repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
			capturedFilter = filter
			return []*model.Booking{storedBooking(model.BookingPending)}, nil
		},
		countFunc: func(ctx context.Context, filter *repository.BookingFilter) (int64, error) {
			return 1, nil
		},
	}
	properties := &mockPropertyReader{
		findIDsByOwnerFunc: func(ctx context.Context, ownerID string) ([]string, error) {
			return []string{testPropertyID}, nil
		},
	}
	service := newTestService(repo, &mockHoldRepository{}, properties, nil)

	_, count, err := service.List(context.Background(), tenant(), "", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
	if capturedFilter.TenantID != testTenantID {
		t.Errorf("tenant listing must filter by tenant ID, got %q", capturedFilter.TenantID)
	}

	_, _, err = service.List(context.Background(), landlord(), "", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capturedFilter.PropertyIDs) != 1 || capturedFilter.PropertyIDs[0] != testPropertyID {
		t.Errorf("landlord listing must filter by owned property IDs, got %v", capturedFilter.PropertyIDs)
	}
}

func TestList_LandlordWithoutProperties(t *testing.T) {
	service := newTestService(&mockBookingRepository{}, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	bookings, count, err := service.List(context.Background(), landlord(), "", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 || len(bookings) != 0 {
		t.Errorf("expected empty result, got %d bookings, count %d", len(bookings), count)
	}
}

func TestList_InvalidStatusFilter(t *testing.T) {
	service := newTestService(&mockBookingRepository{}, &mockHoldRepository{}, &mockPropertyReader{}, nil)

	_, _, err := service.List(context.Background(), tenant(), "archived", 10, 0)
	if appErr := appErrFrom(t, err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestCompleteDue_SweepsConfirmedBookings(t *testing.T) {
	due := []*model.Booking{
		storedBooking(model.BookingConfirmed),
		storedBooking(model.BookingConfirmed),
	}
	due[1].ID = "64b000000000000000000005"

	var completedIDs []string
	calls := 0
	repo := &mockBookingRepository{
		findCompletableFunc: func(ctx context.Context, before time.Time, limit int) ([]*model.Booking, error) {
			calls++
			if calls == 1 {
				return due, nil
			}
			return []*model.Booking{}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status model.BookingStatus) error {
			if status != model.BookingCompleted {
				t.Errorf("sweep must set completed, got %s", status)
			}
			completedIDs = append(completedIDs, id)
			return nil
		},
	}
	publisher := &mockPublisher{}
	service := newTestService(repo, &mockHoldRepository{}, &mockPropertyReader{}, publisher)

	completed, err := service.CompleteDue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed != 2 {
		t.Errorf("expected 2 completed bookings, got %d", completed)
	}
	if len(completedIDs) != 2 {
		t.Errorf("expected 2 status updates, got %d", len(completedIDs))
	}
	if len(publisher.messages) != 2 {
		t.Errorf("expected 2 status events, got %d", len(publisher.messages))
	}
}

func TestCreate_PublishesEvent(t *testing.T) {
	publisher := &mockPublisher{}
	service := newTestService(&mockBookingRepository{}, &mockHoldRepository{}, &mockPropertyReader{}, publisher)

	_, err := service.Create(context.Background(), tenant(), &model.BookingCreate{
		PropertyID: testPropertyID,
		CheckIn:    futureDate(5),
		CheckOut:   futureDate(7),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.messages))
	}
	if got := publisher.messages[0].GetEventType(); got != kafka.EventBookingCreated {
		t.Errorf("expected event type %s, got %s", kafka.EventBookingCreated, got)
	}
}
