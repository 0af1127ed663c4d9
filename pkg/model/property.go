package model

import "time"

type PropertyStatus string

const (
	PropertyActive   PropertyStatus = "active"
	PropertyInactive PropertyStatus = "inactive"
)

func (s PropertyStatus) IsValid() bool {
	return s == PropertyActive || s == PropertyInactive
}

// Toggle flips active <-> inactive.
func (s PropertyStatus) Toggle() PropertyStatus {
	if s == PropertyActive {
		return PropertyInactive
	}
	return PropertyActive
}

type Location struct {
	City     string `json:"city" bson:"city" validate:"required,min=2,max=100"`
	District string `json:"district,omitempty" bson:"district,omitempty" validate:"omitempty,max=100"`
	Address  string `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=255"`
}

type Property struct {
	ID           string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID      string         `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	Title        string         `json:"title" bson:"title" validate:"required,min=2,max=200"`
	Description  string         `json:"description" bson:"description" validate:"required,max=5000"`
	PropertyType string         `json:"property_type" bson:"property_type" validate:"required,min=2,max=50"`
	Location     Location       `json:"location" bson:"location" validate:"required"`
	NightlyPrice float64        `json:"nightly_price" bson:"nightly_price" validate:"required,gt=0"`
	Rooms        int            `json:"rooms" bson:"rooms" validate:"required,min=1,max=50"`
	Area         float64        `json:"area" bson:"area" validate:"required,gte=1"`
	Status       PropertyStatus `json:"status" bson:"status" validate:"required,oneof=active inactive"`
	ViewsCount   int64          `json:"views_count" bson:"views_count"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
}

type PropertyUpdate struct {
	Title        *string   `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description  *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	PropertyType *string   `json:"property_type,omitempty" validate:"omitempty,min=2,max=50"`
	Location     *Location `json:"location,omitempty"`
	NightlyPrice *float64  `json:"nightly_price,omitempty" validate:"omitempty,gt=0"`
	Rooms        *int      `json:"rooms,omitempty" validate:"omitempty,min=1,max=50"`
	Area         *float64  `json:"area,omitempty" validate:"omitempty,gte=1"`
}

// PropertyFilter captures the supported listing filters.
type PropertyFilter struct {
	OwnerID  string
	City     string
	MinPrice *float64
	MaxPrice *float64
	Rooms    *int
	Query    string
	Status   PropertyStatus
}
