package model

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
	BookingCanceled  BookingStatus = "canceled"
	BookingCompleted BookingStatus = "completed"
)

// validTransitions defines the booking state machine. Completed is reachable
// only through the completion sweep (cmd/completer), never through a request
// handler.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingRejected, BookingCanceled},
	BookingConfirmed: {BookingCanceled, BookingCompleted},
	BookingRejected:  {},
	BookingCanceled:  {},
	BookingCompleted: {},
}

func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// Blocking reports whether a booking in this status occupies its date range
// for the purposes of overlap checking.
func (s BookingStatus) Blocking() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s BookingStatus) String() string {
	return string(s)
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %q", s)
	}
	return status, nil
}
