package model

import "time"

// BookingHold is an advisory lock keyed by (property, date range). It keeps
// two concurrent requests for overlapping dates from both passing the overlap
// check before either insert lands. Holds auto-expire via a TTL index.
type BookingHold struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
