package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/models"
	"github.com/staya/travel-booking-backend/internal/utils"
)

var (
	ErrNotBookingOwner      = errors.New("booking belongs to another user")
	ErrBookingNotPayable    = errors.New("booking is not payable")
	ErrBookingAlreadyPaid   = errors.New("booking is already paid")
	ErrPaymentNotRefundable = errors.New("only successful payments can be refunded")
)

// PaymentGateway abstracts the Paystack client so the orchestration can
// be tested against a fake
type PaymentGateway interface {
	InitializeTransaction(req *PaystackInitializeRequest) (*PaystackInitializeData, error)
	VerifyTransaction(reference string) (*PaystackVerifyData, error)
	ValidateWebhookSignature(body []byte, signature string) bool
}

// PaymentService orchestrates payment initialization, verification and
// refunds across the gateway and the database
type PaymentService struct {
	db       database.DB
	payments *database.PaymentRepository
	bookings *database.BookingRepository
	gateway  PaymentGateway
	logger   *logrus.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	db database.DB,
	payments *database.PaymentRepository,
	bookings *database.BookingRepository,
	gateway PaymentGateway,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		db:       db,
		payments: payments,
		bookings: bookings,
		gateway:  gateway,
		logger:   logger,
	}
}

// InitializePayment creates a payment attempt for a booking and returns
// the checkout details. An open pending attempt is reused instead of
// creating a second checkout session.
func (s *PaymentService) InitializePayment(user *models.User, bookingID uuid.UUID) (*models.Payment, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrNotBookingOwner
	}

	if booking.IsPaid() {
		return nil, ErrBookingAlreadyPaid
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrBookingNotPayable
	}

	// Reuse an open attempt that already has a checkout URL
	if existing, err := s.payments.GetPendingByBookingID(bookingID); err != nil {
		return nil, err
	} else if existing != nil && existing.AuthorizationURL != nil {
		return existing, nil
	}

	payment := &models.Payment{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Reference: utils.GeneratePaymentReference(),
		Amount:    booking.TotalPrice,
		Currency:  "NGN",
		Status:    models.PaymentStatusPending,
	}

	if err := s.payments.Create(payment); err != nil {
		return nil, err
	}

	init, err := s.gateway.InitializeTransaction(&PaystackInitializeRequest{
		Email:     booking.ContactEmail,
		Amount:    payment.AmountKobo(),
		Reference: payment.Reference,
		Metadata: map[string]interface{}{
			"booking_id":        booking.ID.String(),
			"booking_reference": booking.Reference,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gateway transaction: %w", err)
	}

	metadata := models.PaymentMetadata{"access_code": init.AccessCode}
	if err := s.payments.UpdateGatewayReference(payment.ID, init.Reference, init.AuthorizationURL, metadata); err != nil {
		return nil, err
	}

	payment.GatewayReference = &init.Reference
	payment.AuthorizationURL = &init.AuthorizationURL
	payment.Metadata = metadata

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": booking.ID,
		"reference":  payment.Reference,
	}).Info("Payment initialized")

	return payment, nil
}

// VerifyPayment settles a payment against the gateway's authoritative
// status. Verifying an already-settled payment is a no-op that returns
// the stored state, so webhook retries and double verifies are safe.
// On success the payment and its booking update in one transaction.
func (s *PaymentService) VerifyPayment(reference string) (*models.Payment, error) {
	payment, err := s.payments.GetByReference(reference)
	if err != nil {
		return nil, err
	}

	if payment.IsFinal() {
		return payment, nil
	}

	gatewayRef := payment.Reference
	if payment.GatewayReference != nil {
		gatewayRef = *payment.GatewayReference
	}

	verified, err := s.gateway.VerifyTransaction(gatewayRef)
	if err != nil {
		return nil, fmt.Errorf("gateway verification failed: %w", err)
	}

	metadata := models.PaymentMetadata{
		"gateway_status": verified.Status,
		"channel":        verified.Channel,
		"amount_kobo":    verified.Amount,
	}

	if verified.Status != "success" {
		if err := s.payments.MarkFailed(payment.ID, metadata); err != nil {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"status":     verified.Status,
		}).Warn("Payment verification returned non-success")
		return s.payments.GetByID(payment.ID)
	}

	paidAt := time.Now()
	if verified.PaidAt != "" {
		if parsed, err := time.Parse(time.RFC3339, verified.PaidAt); err == nil {
			paidAt = parsed
		}
	}

	var channel *string
	if verified.Channel != "" {
		channel = &verified.Channel
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.payments.MarkSuccessTx(tx, payment.ID, channel, paidAt, metadata); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.bookings.ConfirmPaymentTx(tx, payment.BookingID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment confirmation: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": payment.BookingID,
		"reference":  payment.Reference,
	}).Info("Payment confirmed")

	return s.payments.GetByID(payment.ID)
}

// HandleWebhook processes a verified webhook event. Only charge.success
// is acted on; other events are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(event *PaystackWebhookEvent) error {
	if event.Event != "charge.success" {
		s.logger.WithField("event", event.Event).Debug("Ignoring webhook event")
		return nil
	}

	_, err := s.VerifyPayment(event.Data.Reference)
	return err
}

// RefundPayment marks a successful payment refunded and cancels its
// booking in one transaction. The gateway refund itself is settled
// manually by finance, so no gateway call happens here.
func (s *PaymentService) RefundPayment(paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != models.PaymentStatusSuccess {
		return nil, ErrPaymentNotRefundable
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.payments.MarkRefundedTx(tx, payment.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.bookings.RefundTx(tx, payment.BookingID, payment.Amount); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": payment.BookingID,
		"amount":     payment.Amount,
	}).Info("Payment refunded")

	return s.payments.GetByID(payment.ID)
}
