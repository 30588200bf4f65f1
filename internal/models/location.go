package models

import (
	"time"

	"github.com/google/uuid"
)

// Location represents a bookable city or town
type Location struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	State     string    `json:"state" db:"state"`
	Country   string    `json:"country" db:"country"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateLocationRequest represents the request to add a location
type CreateLocationRequest struct {
	Name      string  `json:"name" binding:"required,min=2,max=100"`
	State     string  `json:"state" binding:"required"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
}

// UpdateLocationRequest represents the request to update a location.
// Nil fields are left unchanged.
type UpdateLocationRequest struct {
	Name      *string  `json:"name,omitempty"`
	State     *string  `json:"state,omitempty"`
	Country   *string  `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	IsActive  *bool    `json:"is_active,omitempty"`
}
