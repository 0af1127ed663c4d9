package validator

import (
	"testing"

	apperrors "rentio/pkg/errors"
	"rentio/pkg/logger"
	"rentio/pkg/model"
)

func newTestValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Service: "test",
	}))
}

func TestValidateDates(t *testing.T) {
	today := model.Today()

	tests := []struct {
		name       string
		checkIn    int // offset in days from today
		checkOut   int
		wantReason string
	}{
		{"valid future range", 5, 8, ""},
		{"one night starting today", 0, 1, ""},
		{"inverted range", 8, 5, apperrors.ReasonInvalidDateRange},
		{"zero nights", 5, 5, apperrors.ReasonInvalidDateRange},
		{"past check-in", -3, 2, apperrors.ReasonPastCheckInDate},
		// The range shape failure wins when both rules are broken.
		{"past and inverted", -3, -5, apperrors.ReasonInvalidDateRange},
	}

	v := newTestValidator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDates(today.AddDate(0, 0, tt.checkIn), today.AddDate(0, 0, tt.checkOut))

			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			appErr, ok := err.(*apperrors.AppError)
			if !ok {
				t.Fatalf("expected *AppError, got %T: %v", err, err)
			}
			if appErr.Code != apperrors.CodeValidation {
				t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
			}
			if got := appErr.Details["reason"]; got != tt.wantReason {
				t.Errorf("expected reason %q, got %v", tt.wantReason, got)
			}
		})
	}
}

func TestValidateBookingStruct(t *testing.T) {
	v := newTestValidator()
	today := model.Today()

	valid := &model.Booking{
		PropertyID:  "64b000000000000000000001",
		TenantID:    "64b000000000000000000002",
		CheckIn:     today.AddDate(0, 0, 5),
		CheckOut:    today.AddDate(0, 0, 8),
		GuestsCount: 2,
		Status:      model.BookingPending,
		TotalPrice:  300,
	}
	if err := v.Validate(valid); err != nil {
		t.Fatalf("valid booking rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(b *model.Booking)
	}{
		{"missing property", func(b *model.Booking) { b.PropertyID = "" }},
		{"malformed property id", func(b *model.Booking) { b.PropertyID = "not-an-object-id" }},
		{"zero guests", func(b *model.Booking) { b.GuestsCount = 0 }},
		{"too many guests", func(b *model.Booking) { b.GuestsCount = 51 }},
		{"unknown status", func(b *model.Booking) { b.Status = "archived" }},
		{"negative price", func(b *model.Booking) { b.TotalPrice = -1 }},
		{"checkout not after checkin", func(b *model.Booking) { b.CheckOut = b.CheckIn }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := *valid
			tt.mutate(&booking)
			if err := v.Validate(&booking); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()

	guests := 3
	if err := v.ValidateUpdate(&model.BookingUpdate{GuestsCount: &guests, Status: "confirmed"}); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}

	bad := 0
	if err := v.ValidateUpdate(&model.BookingUpdate{GuestsCount: &bad}); err == nil {
		t.Error("zero guests should fail")
	}
	if err := v.ValidateUpdate(&model.BookingUpdate{Status: "archived"}); err == nil {
		t.Error("unknown status should fail")
	}
}
