package model

import "time"

type Review struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PropertyID string    `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	UserID     string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	Rating     int       `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Comment    string    `json:"comment,omitempty" bson:"comment,omitempty" validate:"omitempty,max=2000"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

type ReviewCreate struct {
	PropertyID string `json:"property_id" validate:"required,mongodb"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type ReviewUpdate struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// PropertyReviews is the aggregated listing for a single property.
type PropertyReviews struct {
	Count         int64     `json:"count"`
	AverageRating float64   `json:"average_rating"`
	Results       []*Review `json:"results"`
}
