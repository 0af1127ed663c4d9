package model

import "time"

// ViewHistory records the most recent time a user viewed a property. One
// document per (user, property) pair, upserted on every view.
type ViewHistory struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	PropertyID string    `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

// SearchHistory is an append-only log of property search queries.
type SearchHistory struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Query     string    `json:"query" bson:"query" validate:"required,min=1,max=255"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// PopularSearch is one row of the popular-searches aggregation.
type PopularSearch struct {
	Query string `json:"query" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}
