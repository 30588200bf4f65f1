package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransportType represents the kind of transport offered on a route
type TransportType string

const (
	TransportBus    TransportType = "bus"
	TransportFlight TransportType = "flight"
	TransportTrain  TransportType = "train"
	TransportCar    TransportType = "car"
)

// TransportAvailability represents how bookable a transport offer is
type TransportAvailability string

const (
	AvailabilityAvailable   TransportAvailability = "available"
	AvailabilityLimited     TransportAvailability = "limited"
	AvailabilityUnavailable TransportAvailability = "unavailable"
)

// TransportMode is one transport offer embedded in a route
type TransportMode struct {
	Type         TransportType         `json:"type"`
	Operator     string                `json:"operator"`
	Price        float64               `json:"price"`
	Duration     string                `json:"duration"`
	Availability TransportAvailability `json:"availability"`
}

// TransportModes is stored as a JSONB column on routes
type TransportModes []TransportMode

// Value implements the driver.Valuer interface
func (m TransportModes) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *TransportModes) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for TransportModes: %T", src)
	}
	return json.Unmarshal(data, m)
}

// Route represents a travel connection between two locations
type Route struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	FromLocationID  uuid.UUID      `json:"from_location_id" db:"from_location_id"`
	ToLocationID    uuid.UUID      `json:"to_location_id" db:"to_location_id"`
	DistanceKM      float64        `json:"distance_km" db:"distance_km"`
	Duration        string         `json:"duration" db:"duration"`
	BasePrice       float64        `json:"base_price" db:"base_price"`
	TransportModes  TransportModes `json:"transport_modes" db:"transport_modes"`
	PopularityScore int            `json:"popularity_score" db:"popularity_score"`
	IsActive        bool           `json:"is_active" db:"is_active"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`

	// Joined location names, populated on list/search queries
	FromLocationName string `json:"from_location_name,omitempty" db:"from_location_name"`
	ToLocationName   string `json:"to_location_name,omitempty" db:"to_location_name"`
}

// AvailableTransportModes filters out offers that cannot be booked
func (r *Route) AvailableTransportModes() TransportModes {
	modes := make(TransportModes, 0, len(r.TransportModes))
	for _, m := range r.TransportModes {
		if m.Availability != AvailabilityUnavailable {
			modes = append(modes, m)
		}
	}
	return modes
}

// FindTransportMode returns the offer of the given type, if present
func (r *Route) FindTransportMode(t TransportType) (TransportMode, bool) {
	for _, m := range r.TransportModes {
		if m.Type == t {
			return m, true
		}
	}
	return TransportMode{}, false
}

// CreateRouteRequest represents the request to add a route
type CreateRouteRequest struct {
	FromLocationID  uuid.UUID      `json:"from_location_id" binding:"required"`
	ToLocationID    uuid.UUID      `json:"to_location_id" binding:"required"`
	DistanceKM      float64        `json:"distance_km" binding:"required,gt=0"`
	Duration        string         `json:"duration" binding:"required"`
	BasePrice       float64        `json:"base_price" binding:"required,gt=0"`
	TransportModes  TransportModes `json:"transport_modes" binding:"required,min=1"`
	PopularityScore int            `json:"popularity_score"`
}

// UpdateRouteRequest represents the request to update a route.
// Nil fields are left unchanged.
type UpdateRouteRequest struct {
	DistanceKM      *float64        `json:"distance_km,omitempty"`
	Duration        *string         `json:"duration,omitempty"`
	BasePrice       *float64        `json:"base_price,omitempty"`
	TransportModes  *TransportModes `json:"transport_modes,omitempty"`
	PopularityScore *int            `json:"popularity_score,omitempty"`
	IsActive        *bool           `json:"is_active,omitempty"`
}

// CalculatePriceRequest represents the request to quote a trip price
type CalculatePriceRequest struct {
	FromLocationID uuid.UUID     `json:"from_location_id" binding:"required"`
	ToLocationID   uuid.UUID     `json:"to_location_id" binding:"required"`
	TransportType  TransportType `json:"transport_type" binding:"required"`
	Passengers     int           `json:"passengers" binding:"required,min=1,max=10"`
	DepartureDate  time.Time     `json:"departure_date" binding:"required"`
}

// PriceQuote is the result of a price calculation.
// Available is false when no active route serves the pair; the quote is
// then a zero-price sentinel rather than an error.
type PriceQuote struct {
	Available     bool          `json:"available"`
	RouteID       *uuid.UUID    `json:"route_id,omitempty"`
	TransportType TransportType `json:"transport_type,omitempty"`
	UnitPrice     float64       `json:"unit_price"`
	Passengers    int           `json:"passengers"`
	Multiplier    float64       `json:"multiplier"`
	TotalPrice    float64       `json:"total_price"`
	Currency      string        `json:"currency"`
}
