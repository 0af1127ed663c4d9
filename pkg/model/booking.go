package model

import (
	"time"
)

type Booking struct {
	ID          string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PropertyID  string        `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	TenantID    string        `json:"tenant_id" bson:"tenant_id" validate:"required,mongodb"`
	CheckIn     time.Time     `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut    time.Time     `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	GuestsCount int           `json:"guests_count" bson:"guests_count" validate:"required,min=1,max=50"`
	Status      BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed rejected canceled completed"`
	TotalPrice  float64       `json:"total_price" bson:"total_price" validate:"gte=0"`
	Notes       string        `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// BookingCreate is the request payload for creating a booking. Dates travel
// as YYYY-MM-DD strings; status, tenant and price are assigned server-side.
type BookingCreate struct {
	PropertyID  string `json:"property_id" validate:"required,mongodb"`
	CheckIn     string `json:"check_in" validate:"required"`
	CheckOut    string `json:"check_out" validate:"required"`
	GuestsCount int    `json:"guests_count" validate:"omitempty,min=1,max=50"`
	Notes       string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// BookingUpdate carries the mutable booking fields. A status value different
// from the stored one is treated as a transition request and is gated to the
// property owner.
type BookingUpdate struct {
	CheckIn     *string `json:"check_in,omitempty"`
	CheckOut    *string `json:"check_out,omitempty"`
	GuestsCount *int    `json:"guests_count,omitempty" validate:"omitempty,min=1,max=50"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed rejected canceled completed"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}
