package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// BookingPaymentStatus represents the payment status of a booking
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentFailed   BookingPaymentStatus = "failed"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

// TripType represents whether a booking is one-way or round-trip
type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripRoundTrip TripType = "round-trip"
)

// Cancellation window: bookings cannot be cancelled with less than 24
// hours to departure, full refund up to 48 hours before, 75% after that.
const (
	MinCancelHours  = 24
	FullRefundHours = 48
	LateRefundRate  = 0.75
)

var (
	ErrCancellationNotAllowed = errors.New("booking can no longer be cancelled")
	ErrBookingNotUpdatable    = errors.New("only pending bookings can be updated")
)

// Booking represents a trip reservation
type Booking struct {
	ID               uuid.UUID            `json:"id" db:"id"`
	Reference        string               `json:"reference" db:"reference"`
	UserID           uuid.UUID            `json:"user_id" db:"user_id"`
	RouteID          uuid.UUID            `json:"route_id" db:"route_id"`
	FromLocationID   uuid.UUID            `json:"from_location_id" db:"from_location_id"`
	ToLocationID     uuid.UUID            `json:"to_location_id" db:"to_location_id"`
	TripType         TripType             `json:"trip_type" db:"trip_type"`
	DepartureDate    time.Time            `json:"departure_date" db:"departure_date"`
	ReturnDate       *time.Time           `json:"return_date,omitempty" db:"return_date"`
	Passengers       int                  `json:"passengers" db:"passengers"`
	TransportType    TransportType        `json:"transport_type" db:"transport_type"`
	TransportFare    float64              `json:"transport_fare" db:"transport_fare"` // per-passenger fare at booking time
	TotalPrice       float64              `json:"total_price" db:"total_price"`
	Status           BookingStatus        `json:"status" db:"status"`
	PaymentStatus    BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	ContactEmail     string               `json:"contact_email" db:"contact_email"`
	ContactPhone     string               `json:"contact_phone" db:"contact_phone"`
	SpecialRequests  *string              `json:"special_requests,omitempty" db:"special_requests"`
	CancelledAt      *time.Time           `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationNote *string              `json:"cancellation_note,omitempty" db:"cancellation_note"`
	RefundAmount     *float64             `json:"refund_amount,omitempty" db:"refund_amount"`
	CreatedAt        time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at" db:"updated_at"`
}

// HoursToDeparture returns the number of hours between now and departure
func (b *Booking) HoursToDeparture(now time.Time) float64 {
	return b.DepartureDate.Sub(now).Hours()
}

// CanBeCancelled checks if the booking can still be cancelled by its owner
func (b *Booking) CanBeCancelled(now time.Time) bool {
	if b.Status != BookingStatusPending && b.Status != BookingStatusConfirmed {
		return false
	}
	return b.HoursToDeparture(now) >= MinCancelHours
}

// CalculateRefundAmount returns the refund owed on cancellation.
// Unpaid bookings refund nothing. Paid bookings refund 100% with at
// least 48 hours to departure, 75% with at least 24 hours.
func (b *Booking) CalculateRefundAmount(now time.Time) float64 {
	if b.PaymentStatus != BookingPaymentPaid {
		return 0
	}

	hours := b.HoursToDeparture(now)
	switch {
	case hours >= FullRefundHours:
		return b.TotalPrice
	case hours >= MinCancelHours:
		return b.TotalPrice * LateRefundRate
	default:
		return 0
	}
}

// Cancel cancels the booking and records the refund owed
func (b *Booking) Cancel(now time.Time, note *string) error {
	if !b.CanBeCancelled(now) {
		return ErrCancellationNotAllowed
	}

	refund := b.CalculateRefundAmount(now)
	b.Status = BookingStatusCancelled
	b.CancelledAt = &now
	b.CancellationNote = note
	b.RefundAmount = &refund
	b.UpdatedAt = now

	return nil
}

// CanBeUpdated checks if the booking details can still be edited
func (b *Booking) CanBeUpdated() bool {
	return b.Status == BookingStatusPending
}

// ConfirmPayment marks the booking paid and confirmed
func (b *Booking) ConfirmPayment(now time.Time) {
	b.PaymentStatus = BookingPaymentPaid
	b.Status = BookingStatusConfirmed
	b.UpdatedAt = now
}

// IsPaid checks if the booking is paid
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == BookingPaymentPaid
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	FromLocationID  uuid.UUID     `json:"from_location_id" binding:"required"`
	ToLocationID    uuid.UUID     `json:"to_location_id" binding:"required"`
	TripType        TripType      `json:"trip_type" binding:"required,oneof=one-way round-trip"`
	DepartureDate   time.Time     `json:"departure_date" binding:"required"`
	ReturnDate      *time.Time    `json:"return_date,omitempty"`
	Passengers      int           `json:"passengers" binding:"required,min=1,max=10"`
	TransportType   TransportType `json:"transport_type" binding:"required,oneof=bus flight train car"`
	ContactEmail    string        `json:"contact_email" binding:"required,email"`
	ContactPhone    string        `json:"contact_phone" binding:"required"`
	SpecialRequests *string       `json:"special_requests,omitempty"`
}

// Validate checks the date constraints that gin bindings cannot express
func (r *CreateBookingRequest) Validate(now time.Time) error {
	if r.DepartureDate.Before(now) {
		return errors.New("departure date cannot be in the past")
	}

	if r.TripType == TripRoundTrip {
		if r.ReturnDate == nil {
			return errors.New("return date is required for round trips")
		}
		if !r.ReturnDate.After(r.DepartureDate) {
			return errors.New("return date must be after departure date")
		}
	}

	return nil
}

// UpdateBookingRequest edits a pending booking. Only contact details and
// special requests can change after creation.
type UpdateBookingRequest struct {
	ContactEmail    *string `json:"contact_email,omitempty"`
	ContactPhone    *string `json:"contact_phone,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

// CancelBookingRequest represents the request to cancel a booking
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// UpdateBookingStatusRequest is the admin request to force a status
type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
}

// BookingStats summarises bookings for the admin dashboard
type BookingStats struct {
	TotalBookings     int64   `json:"total_bookings" db:"total_bookings"`
	PendingBookings   int64   `json:"pending_bookings" db:"pending_bookings"`
	ConfirmedBookings int64   `json:"confirmed_bookings" db:"confirmed_bookings"`
	CancelledBookings int64   `json:"cancelled_bookings" db:"cancelled_bookings"`
	CompletedBookings int64   `json:"completed_bookings" db:"completed_bookings"`
	TotalRevenue      float64 `json:"total_revenue" db:"total_revenue"`
}
