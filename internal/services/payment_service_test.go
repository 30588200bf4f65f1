package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/models"
)

// fakePaymentGateway stands in for the Paystack client
type fakePaymentGateway struct {
	initData    *PaystackInitializeData
	initErr     error
	verifyData  *PaystackVerifyData
	verifyErr   error
	verifyCalls int
}

func (f *fakePaymentGateway) InitializeTransaction(req *PaystackInitializeRequest) (*PaystackInitializeData, error) {
	return f.initData, f.initErr
}

func (f *fakePaymentGateway) VerifyTransaction(reference string) (*PaystackVerifyData, error) {
	f.verifyCalls++
	return f.verifyData, f.verifyErr
}

func (f *fakePaymentGateway) ValidateWebhookSignature(body []byte, signature string) bool {
	return true
}

func setupPaymentServiceTest(t *testing.T, gateway *fakePaymentGateway) (*PaymentService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	service := NewPaymentService(
		postgresDB,
		database.NewPaymentRepository(postgresDB),
		database.NewBookingRepository(postgresDB),
		gateway,
		logger,
	)

	return service, mock, func() { db.Close() }
}

var servicePaymentColumns = []string{
	"id", "booking_id", "user_id", "reference", "gateway_reference",
	"amount", "currency", "channel", "status", "authorization_url", "metadata",
	"paid_at", "refunded_at", "created_at", "updated_at",
}

func servicePaymentRow(paymentID, bookingID uuid.UUID, reference, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(servicePaymentColumns).AddRow(
		paymentID, bookingID, uuid.New(), reference, nil,
		17000.0, "NGN", nil, status, nil, []byte(`{}`),
		nil, nil, now, now,
	)
}

func TestVerifyPayment(t *testing.T) {
	reference := "STAYA_1756700000000_a1b2c3d4"

	t.Run("Already Settled Payment Skips Gateway", func(t *testing.T) {
		gateway := &fakePaymentGateway{}
		service, mock, cleanup := setupPaymentServiceTest(t, gateway)
		defer cleanup()

		paymentID := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(reference).
			WillReturnRows(servicePaymentRow(paymentID, uuid.New(), reference, "success"))

		payment, err := service.VerifyPayment(reference)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
		assert.Equal(t, 0, gateway.verifyCalls, "Settled payment must not hit the gateway again")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success Settles Payment And Booking Together", func(t *testing.T) {
		gateway := &fakePaymentGateway{
			verifyData: &PaystackVerifyData{
				Status:    "success",
				Reference: reference,
				Amount:    1700000,
				Currency:  "NGN",
				Channel:   "card",
				PaidAt:    "2026-09-01T10:15:00Z",
			},
		}
		service, mock, cleanup := setupPaymentServiceTest(t, gateway)
		defer cleanup()

		paymentID := uuid.New()
		bookingID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(reference).
			WillReturnRows(servicePaymentRow(paymentID, bookingID, reference, "pending"))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE payments`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(paymentID).
			WillReturnRows(servicePaymentRow(paymentID, bookingID, reference, "success"))

		payment, err := service.VerifyPayment(reference)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
		assert.Equal(t, 1, gateway.verifyCalls)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Gateway Failure Marks Payment Failed", func(t *testing.T) {
		gateway := &fakePaymentGateway{
			verifyData: &PaystackVerifyData{
				Status:    "failed",
				Reference: reference,
				Amount:    1700000,
			},
		}
		service, mock, cleanup := setupPaymentServiceTest(t, gateway)
		defer cleanup()

		paymentID := uuid.New()
		bookingID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(reference).
			WillReturnRows(servicePaymentRow(paymentID, bookingID, reference, "pending"))

		mock.ExpectExec(`UPDATE payments`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(paymentID).
			WillReturnRows(servicePaymentRow(paymentID, bookingID, reference, "failed"))

		payment, err := service.VerifyPayment(reference)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, payment.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRefundPayment(t *testing.T) {
	t.Run("Pending Payment Not Refundable", func(t *testing.T) {
		gateway := &fakePaymentGateway{}
		service, mock, cleanup := setupPaymentServiceTest(t, gateway)
		defer cleanup()

		paymentID := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(paymentID).
			WillReturnRows(servicePaymentRow(paymentID, uuid.New(), "STAYA_ref", "pending"))

		payment, err := service.RefundPayment(paymentID)
		assert.ErrorIs(t, err, ErrPaymentNotRefundable)
		assert.Nil(t, payment)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success Refunds Payment And Booking Together", func(t *testing.T) {
		gateway := &fakePaymentGateway{}
		service, mock, cleanup := setupPaymentServiceTest(t, gateway)
		defer cleanup()

		paymentID := uuid.New()
		bookingID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(paymentID).
			WillReturnRows(servicePaymentRow(paymentID, bookingID, "STAYA_ref", "success"))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(paymentID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(paymentID).
			WillReturnRows(servicePaymentRow(paymentID, bookingID, "STAYA_ref", "refunded"))

		payment, err := service.RefundPayment(paymentID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusRefunded, payment.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHandleWebhook(t *testing.T) {
	t.Run("Ignores Non Charge Events", func(t *testing.T) {
		gateway := &fakePaymentGateway{}
		service, mock, cleanup := setupPaymentServiceTest(t, gateway)
		defer cleanup()

		err := service.HandleWebhook(&PaystackWebhookEvent{Event: "transfer.success"})
		assert.NoError(t, err)
		assert.Equal(t, 0, gateway.verifyCalls)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Charge Success Verifies The Reference", func(t *testing.T) {
		gateway := &fakePaymentGateway{}
		service, mock, cleanup := setupPaymentServiceTest(t, gateway)
		defer cleanup()

		reference := "STAYA_1756700000000_a1b2c3d4"
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(reference).
			WillReturnRows(servicePaymentRow(uuid.New(), uuid.New(), reference, "success"))

		err := service.HandleWebhook(&PaystackWebhookEvent{
			Event: "charge.success",
			Data:  PaystackVerifyData{Reference: reference},
		})
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
