package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/staya/travel-booking-backend/internal/models"
)

const bookingColumns = `id, reference, user_id, route_id, from_location_id,
	to_location_id, trip_type, departure_date, return_date, passengers,
	transport_type, transport_fare, total_price, status, payment_status,
	contact_email, contact_phone, special_requests, cancelled_at,
	cancellation_note, refund_amount, created_at, updated_at`

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking. The reference column carries a unique
// constraint: a collision surfaces as an error for the caller to retry
// with a fresh reference.
func (r *BookingRepository) Create(booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	query := `
		INSERT INTO bookings (
			id, reference, user_id, route_id, from_location_id, to_location_id,
			trip_type, departure_date, return_date, passengers,
			transport_type, transport_fare, total_price, status, payment_status,
			contact_email, contact_phone, special_requests
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		booking.ID, booking.Reference, booking.UserID, booking.RouteID,
		booking.FromLocationID, booking.ToLocationID,
		booking.TripType, booking.DepartureDate, booking.ReturnDate, booking.Passengers,
		booking.TransportType, booking.TransportFare, booking.TotalPrice,
		booking.Status, booking.PaymentStatus,
		booking.ContactEmail, booking.ContactPhone, booking.SpecialRequests,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("booking reference collision: %w", err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID uuid.UUID) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := r.scanBooking(r.db.QueryRow(query, bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking not found")
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// GetByReference retrieves a booking by its reference
func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`

	booking, err := r.scanBooking(r.db.QueryRow(query, reference))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking not found")
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// GetByUserID retrieves bookings for a user, newest first, with an
// optional status filter
func (r *BookingRepository) GetByUserID(userID uuid.UUID, status string, limit, offset int) ([]models.Booking, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		query := `SELECT ` + bookingColumns + `
			FROM bookings
			WHERE user_id = $1 AND status = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4`
		rows, err = r.db.Query(query, userID, status, limit, offset)
	} else {
		query := `SELECT ` + bookingColumns + `
			FROM bookings
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
		rows, err = r.db.Query(query, userID, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch user bookings: %w", err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// CountByUserID counts a user's bookings with an optional status filter
func (r *BookingRepository) CountByUserID(userID uuid.UUID, status string) (int64, error) {
	var count int64
	var err error

	if status != "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND status = $2`, userID, status).Scan(&count)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

// List retrieves all bookings for the admin view with an optional status filter
func (r *BookingRepository) List(status string, limit, offset int) ([]models.Booking, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		query := `SELECT ` + bookingColumns + `
			FROM bookings
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
		rows, err = r.db.Query(query, status, limit, offset)
	} else {
		query := `SELECT ` + bookingColumns + `
			FROM bookings
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`
		rows, err = r.db.Query(query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// Count counts all bookings with an optional status filter
func (r *BookingRepository) Count(status string) (int64, error) {
	var count int64
	var err error

	if status != "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM bookings WHERE status = $1`, status).Scan(&count)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM bookings`).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

// UpdateContact updates the editable fields of a pending booking
func (r *BookingRepository) UpdateContact(bookingID uuid.UUID, req *models.UpdateBookingRequest) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET contact_email = COALESCE($2, contact_email),
			contact_phone = COALESCE($3, contact_phone),
			special_requests = COALESCE($4, special_requests),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns

	booking, err := r.scanBooking(r.db.QueryRow(
		query, bookingID, req.ContactEmail, req.ContactPhone, req.SpecialRequests,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking not found")
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return booking, nil
}

// Cancel records a cancellation with the refund owed
func (r *BookingRepository) Cancel(booking *models.Booking) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = $2,
			cancellation_note = $3,
			refund_amount = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		booking.ID, booking.CancelledAt, booking.CancellationNote, booking.RefundAmount,
	).Scan(&booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	return nil
}

// UpdateStatus forces a booking status (admin override)
func (r *BookingRepository) UpdateStatus(bookingID uuid.UUID, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, bookingID, status)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// ConfirmPaymentTx marks a booking paid and confirmed inside an open
// transaction. Used by the payment verify path so booking and payment
// rows change together.
func (r *BookingRepository) ConfirmPaymentTx(tx *sql.Tx, bookingID uuid.UUID) error {
	query := `
		UPDATE bookings
		SET payment_status = 'paid', status = 'confirmed', updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to confirm booking payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// RefundTx marks a booking refunded and cancelled inside an open transaction
func (r *BookingRepository) RefundTx(tx *sql.Tx, bookingID uuid.UUID, refundAmount float64) error {
	query := `
		UPDATE bookings
		SET payment_status = 'refunded',
			status = 'cancelled',
			refund_amount = $2,
			cancelled_at = COALESCE(cancelled_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(query, bookingID, refundAmount)
	if err != nil {
		return fmt.Errorf("failed to refund booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// Stats aggregates bookings for the admin dashboard. Revenue counts
// paid bookings only.
func (r *BookingRepository) Stats() (*models.BookingStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(total_price) FILTER (WHERE payment_status = 'paid'), 0)
		FROM bookings
	`

	stats := &models.BookingStats{}
	err := r.db.QueryRow(query).Scan(
		&stats.TotalBookings,
		&stats.PendingBookings,
		&stats.ConfirmedBookings,
		&stats.CancelledBookings,
		&stats.CompletedBookings,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking stats: %w", err)
	}

	return stats, nil
}

// scanBooking scans a single booking row
func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var returnDate sql.NullTime
	var specialRequests sql.NullString
	var cancelledAt sql.NullTime
	var cancellationNote sql.NullString
	var refundAmount sql.NullFloat64

	err := row.Scan(
		&booking.ID, &booking.Reference, &booking.UserID, &booking.RouteID,
		&booking.FromLocationID, &booking.ToLocationID,
		&booking.TripType, &booking.DepartureDate, &returnDate, &booking.Passengers,
		&booking.TransportType, &booking.TransportFare, &booking.TotalPrice,
		&booking.Status, &booking.PaymentStatus,
		&booking.ContactEmail, &booking.ContactPhone, &specialRequests,
		&cancelledAt, &cancellationNote, &refundAmount,
		&booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if returnDate.Valid {
		booking.ReturnDate = &returnDate.Time
	}
	if specialRequests.Valid {
		booking.SpecialRequests = &specialRequests.String
	}
	if cancelledAt.Valid {
		booking.CancelledAt = &cancelledAt.Time
	}
	if cancellationNote.Valid {
		booking.CancellationNote = &cancellationNote.String
	}
	if refundAmount.Valid {
		booking.RefundAmount = &refundAmount.Float64
	}

	return booking, nil
}

// scanBookings scans multiple bookings from rows
func (r *BookingRepository) scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := []models.Booking{}

	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	return bookings, rows.Err()
}
