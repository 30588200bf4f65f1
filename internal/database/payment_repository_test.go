package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staya/travel-booking-backend/internal/models"
)

var paymentTestColumns = []string{
	"id", "booking_id", "user_id", "reference", "gateway_reference",
	"amount", "currency", "channel", "status", "authorization_url", "metadata",
	"paid_at", "refunded_at", "created_at", "updated_at",
}

func paymentTestRow(paymentID uuid.UUID, reference, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(paymentTestColumns).AddRow(
		paymentID, uuid.New(), uuid.New(), reference, nil,
		17000.0, "NGN", nil, status, nil, []byte(`{}`),
		nil, nil, now, now,
	)
}

func TestCreatePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewPaymentRepository(mockDB)

	t.Run("Defaults Currency To NGN", func(t *testing.T) {
		now := time.Now()
		payment := &models.Payment{
			BookingID: uuid.New(),
			UserID:    uuid.New(),
			Reference: "STAYA_1756700000000_a1b2c3d4",
			Amount:    17000,
			Status:    models.PaymentStatusPending,
		}

		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		err := repo.Create(payment)
		require.NoError(t, err)
		assert.Equal(t, "NGN", payment.Currency)
		assert.NotEqual(t, uuid.Nil, payment.ID)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestGetPaymentByReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewPaymentRepository(mockDB)

	t.Run("Matches Internal Or Gateway Reference", func(t *testing.T) {
		paymentID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs("STAYA_1756700000000_a1b2c3d4").
			WillReturnRows(paymentTestRow(paymentID, "STAYA_1756700000000_a1b2c3d4", "pending"))

		payment, err := repo.GetByReference("STAYA_1756700000000_a1b2c3d4")
		require.NoError(t, err)
		assert.Equal(t, paymentID, payment.ID)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
		assert.False(t, payment.IsFinal())

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs("STAYA_unknown").
			WillReturnRows(sqlmock.NewRows(paymentTestColumns))

		payment, err := repo.GetByReference("STAYA_unknown")
		assert.Error(t, err)
		assert.Nil(t, payment)
		assert.Contains(t, err.Error(), "payment not found")

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestGetPendingByBookingID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewPaymentRepository(mockDB)

	t.Run("No Open Attempt Returns Nil", func(t *testing.T) {
		bookingID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM payments`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows(paymentTestColumns))

		payment, err := repo.GetPendingByBookingID(bookingID)
		require.NoError(t, err)
		assert.Nil(t, payment)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestMarkSuccessTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewPaymentRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		paymentID := uuid.New()
		channel := "card"
		paidAt := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(paymentID, channel, paidAt, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := mockDB.Begin()
		require.NoError(t, err)

		err = repo.MarkSuccessTx(tx, paymentID, &channel, paidAt, models.PaymentMetadata{"channel": "card"})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestMarkRefundedTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewPaymentRepository(mockDB)

	t.Run("Only Successful Payments Refund", func(t *testing.T) {
		paymentID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(paymentID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		tx, err := mockDB.Begin()
		require.NoError(t, err)

		err = repo.MarkRefundedTx(tx, paymentID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not refundable")
		require.NoError(t, tx.Rollback())

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}
