package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/staya/travel-booking-backend/internal/models"
)

const paymentColumns = `id, booking_id, user_id, reference, gateway_reference,
	amount, currency, channel, status, authorization_url, metadata,
	paid_at, refunded_at, created_at, updated_at`

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment attempt
func (r *PaymentRepository) Create(payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.Currency == "" {
		payment.Currency = "NGN"
	}

	query := `
		INSERT INTO payments (
			id, booking_id, user_id, reference, gateway_reference,
			amount, currency, channel, status, authorization_url, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.UserID,
		payment.Reference, payment.GatewayReference,
		payment.Amount, payment.Currency, payment.Channel,
		payment.Status, payment.AuthorizationURL, payment.Metadata,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(paymentID uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := r.scanPayment(r.db.QueryRow(query, paymentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment not found")
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}

	return payment, nil
}

// GetByReference retrieves a payment by internal or gateway reference
func (r *PaymentRepository) GetByReference(reference string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE reference = $1 OR gateway_reference = $1`

	payment, err := r.scanPayment(r.db.QueryRow(query, reference))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment not found")
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}

	return payment, nil
}

// GetPendingByBookingID retrieves an open payment attempt for a booking,
// if one exists
func (r *PaymentRepository) GetPendingByBookingID(bookingID uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1`

	payment, err := r.scanPayment(r.db.QueryRow(query, bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch pending payment: %w", err)
	}

	return payment, nil
}

// GetByUserID retrieves a user's payments, newest first
func (r *PaymentRepository) GetByUserID(userID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user payments: %w", err)
	}
	defer rows.Close()

	return r.scanPayments(rows)
}

// CountByUserID counts a user's payments
func (r *PaymentRepository) CountByUserID(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM payments WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

// List retrieves all payments for the admin view with an optional status filter
func (r *PaymentRepository) List(status string, limit, offset int) ([]models.Payment, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		query := `SELECT ` + paymentColumns + `
			FROM payments
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
		rows, err = r.db.Query(query, status, limit, offset)
	} else {
		query := `SELECT ` + paymentColumns + `
			FROM payments
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`
		rows, err = r.db.Query(query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	return r.scanPayments(rows)
}

// Count counts all payments with an optional status filter
func (r *PaymentRepository) Count(status string) (int64, error) {
	var count int64
	var err error

	if status != "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM payments WHERE status = $1`, status).Scan(&count)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}

	return count, nil
}

// UpdateGatewayReference stores the reference and checkout URL returned
// by the gateway after initialization
func (r *PaymentRepository) UpdateGatewayReference(paymentID uuid.UUID, gatewayRef, authorizationURL string, metadata models.PaymentMetadata) error {
	query := `
		UPDATE payments
		SET gateway_reference = $2, authorization_url = $3, metadata = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, paymentID, gatewayRef, authorizationURL, metadata)
	if err != nil {
		return fmt.Errorf("failed to update gateway reference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}

// MarkFailed records a failed gateway verification
func (r *PaymentRepository) MarkFailed(paymentID uuid.UUID, metadata models.PaymentMetadata) error {
	query := `
		UPDATE payments
		SET status = 'failed', metadata = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, paymentID, metadata)
	if err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}

	return nil
}

// MarkSuccessTx records a successful payment inside an open transaction,
// alongside the booking update
func (r *PaymentRepository) MarkSuccessTx(tx *sql.Tx, paymentID uuid.UUID, channel *string, paidAt time.Time, metadata models.PaymentMetadata) error {
	query := `
		UPDATE payments
		SET status = 'success', channel = $2, paid_at = $3, metadata = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(query, paymentID, channel, paidAt, metadata)
	if err != nil {
		return fmt.Errorf("failed to mark payment success: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}

// MarkRefundedTx records a refund inside an open transaction
func (r *PaymentRepository) MarkRefundedTx(tx *sql.Tx, paymentID uuid.UUID) error {
	query := `
		UPDATE payments
		SET status = 'refunded', refunded_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'success'
	`

	result, err := tx.Exec(query, paymentID)
	if err != nil {
		return fmt.Errorf("failed to mark payment refunded: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("payment not found or not refundable")
	}

	return nil
}

// Stats aggregates payments for the admin dashboard
func (r *PaymentRepository) Stats() (*models.PaymentStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'refunded'),
			COALESCE(SUM(amount) FILTER (WHERE status IN ('success', 'refunded')), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'refunded'), 0)
		FROM payments
	`

	stats := &models.PaymentStats{}
	err := r.db.QueryRow(query).Scan(
		&stats.TotalPayments,
		&stats.SuccessfulPayments,
		&stats.FailedPayments,
		&stats.RefundedPayments,
		&stats.TotalCollected,
		&stats.TotalRefunded,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment stats: %w", err)
	}

	return stats, nil
}

// scanPayment scans a single payment row
func (r *PaymentRepository) scanPayment(row scanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var gatewayReference sql.NullString
	var channel sql.NullString
	var authorizationURL sql.NullString
	var paidAt sql.NullTime
	var refundedAt sql.NullTime

	err := row.Scan(
		&payment.ID, &payment.BookingID, &payment.UserID,
		&payment.Reference, &gatewayReference,
		&payment.Amount, &payment.Currency, &channel,
		&payment.Status, &authorizationURL, &payment.Metadata,
		&paidAt, &refundedAt, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if gatewayReference.Valid {
		payment.GatewayReference = &gatewayReference.String
	}
	if channel.Valid {
		payment.Channel = &channel.String
	}
	if authorizationURL.Valid {
		payment.AuthorizationURL = &authorizationURL.String
	}
	if paidAt.Valid {
		payment.PaidAt = &paidAt.Time
	}
	if refundedAt.Valid {
		payment.RefundedAt = &refundedAt.Time
	}

	return payment, nil
}

// scanPayments scans multiple payment rows
func (r *PaymentRepository) scanPayments(rows *sql.Rows) ([]models.Payment, error) {
	payments := []models.Payment{}

	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	return payments, rows.Err()
}
