package model

import "testing"

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingRejected, true},
		{BookingPending, BookingCanceled, true},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCanceled, true},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingRejected, false},
		{BookingConfirmed, BookingPending, false},
		{BookingRejected, BookingConfirmed, false},
		{BookingRejected, BookingCanceled, false},
		{BookingCanceled, BookingConfirmed, false},
		{BookingCanceled, BookingCanceled, false},
		{BookingCompleted, BookingCanceled, false},
		{BookingStatus("archived"), BookingCanceled, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	terminal := []BookingStatus{BookingRejected, BookingCanceled, BookingCompleted}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	for _, s := range []BookingStatus{BookingPending, BookingConfirmed} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestBookingStatusBlocking(t *testing.T) {
	tests := []struct {
		status   BookingStatus
		blocking bool
	}{
		{BookingPending, true},
		{BookingConfirmed, true},
		{BookingRejected, false},
		{BookingCanceled, false},
		{BookingCompleted, false},
	}

	for _, tt := range tests {
		if got := tt.status.Blocking(); got != tt.blocking {
			t.Errorf("%s: expected blocking=%v, got %v", tt.status, tt.blocking, got)
		}
	}
}

func TestParseBookingStatus(t *testing.T) {
	for _, valid := range []string{"pending", "confirmed", "rejected", "canceled", "completed"} {
		if _, err := ParseBookingStatus(valid); err != nil {
			t.Errorf("%q should parse: %v", valid, err)
		}
	}

	for _, invalid := range []string{"", "Pending", "archived", "cancelled"} {
		if _, err := ParseBookingStatus(invalid); err == nil {
			t.Errorf("%q should not parse", invalid)
		}
	}
}
