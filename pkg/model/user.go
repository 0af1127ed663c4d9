package model

import "time"

type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Email        string    `json:"email" bson:"email" validate:"required,email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	FirstName    string    `json:"first_name" bson:"first_name" validate:"required,min=1,max=100"`
	LastName     string    `json:"last_name" bson:"last_name" validate:"required,min=1,max=100"`
	Role         Role      `json:"role" bson:"role" validate:"required,oneof=tenant landlord"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

type UserRegister struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Role      string `json:"role" validate:"required,oneof=tenant landlord"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}
