package kafka

import "time"

// Topics for booking lifecycle events.
const (
	TopicBookingEvents    = "rentio.booking.events"
	TopicBookingEventsDLQ = "rentio.booking.events.dlq"
)

// Event types carried in the event-type header.
const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

// BookingCreatedEvent is published when a tenant places a new booking.
type BookingCreatedEvent struct {
	BookingID  string    `json:"booking_id"`
	PropertyID string    `json:"property_id"`
	TenantID   string    `json:"tenant_id"`
	LandlordID string    `json:"landlord_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookingStatusChangedEvent is published on every status transition,
// including the completer sweep.
type BookingStatusChangedEvent struct {
	BookingID  string    `json:"booking_id"`
	PropertyID string    `json:"property_id"`
	TenantID   string    `json:"tenant_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  string    `json:"changed_by,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}
