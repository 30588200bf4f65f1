package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/middleware"
	"github.com/staya/travel-booking-backend/internal/models"
	"github.com/staya/travel-booking-backend/internal/services"
	"github.com/staya/travel-booking-backend/pkg/mail"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *services.PaymentService
	gateway        services.PaymentGateway
	payments       *database.PaymentRepository
	users          *database.UserRepository
	mailer         mail.Mailer
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	paymentService *services.PaymentService,
	gateway services.PaymentGateway,
	payments *database.PaymentRepository,
	users *database.UserRepository,
	mailer mail.Mailer,
	logger *logrus.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		gateway:        gateway,
		payments:       payments,
		users:          users,
		mailer:         mailer,
		logger:         logger,
	}
}

// Initialize handles POST /api/v1/payments/initialize
func (h *PaymentHandler) Initialize(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := h.users.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Account not found")
		return
	}

	payment, err := h.paymentService.InitializePayment(user, req.BookingID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotBookingOwner):
			respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "You do not have access to this booking")
		case errors.Is(err, services.ErrBookingAlreadyPaid):
			respondError(c, http.StatusConflict, models.ErrCodeAlreadyPaid, "This booking is already paid")
		case errors.Is(err, services.ErrBookingNotPayable):
			respondError(c, http.StatusConflict, models.ErrCodeConflict, "This booking cannot be paid in its current state")
		case err.Error() == "booking not found":
			respondError(c, http.StatusNotFound, models.ErrCodeBookingNotFound, "Booking not found")
		default:
			h.logger.WithError(err).Error("Failed to initialize payment")
			respondError(c, http.StatusBadGateway, models.ErrCodeGatewayUnavailable, "Failed to initialize payment")
		}
		return
	}

	respondCreated(c, "Payment initialized", payment)
}

// Verify handles GET /api/v1/payments/verify/:reference.
// Safe to call repeatedly: a settled payment just echoes its stored state.
func (h *PaymentHandler) Verify(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Payment reference is required")
		return
	}

	before, err := h.payments.GetByReference(reference)
	if err != nil {
		respondError(c, http.StatusNotFound, models.ErrCodePaymentNotFound, "Payment not found")
		return
	}
	alreadyFinal := before.IsFinal()

	payment, err := h.paymentService.VerifyPayment(reference)
	if err != nil {
		h.logger.WithError(err).Error("Failed to verify payment")
		respondError(c, http.StatusBadGateway, models.ErrCodeGatewayUnavailable, "Failed to verify payment with the gateway")
		return
	}

	if payment.Status == models.PaymentStatusSuccess && !alreadyFinal {
		h.sendPaymentConfirmation(payment)
	}

	if payment.Status == models.PaymentStatusFailed {
		c.JSON(http.StatusOK, models.APIResponse{
			Success: false,
			Message: "Payment was not successful",
			Error:   models.ErrCodePaymentFailed,
			Data:    payment,
		})
		return
	}

	respondSuccess(c, "Payment verified", payment)
}

// Webhook handles POST /api/v1/payments/webhook/paystack. Paystack signs the raw
// body with the secret key; an invalid signature is rejected, everything
// after that returns 200 so Paystack stops retrying.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Failed to read request body")
		return
	}

	signature := c.GetHeader("x-paystack-signature")
	if !h.gateway.ValidateWebhookSignature(body, signature) {
		h.logger.WithField("ip", c.ClientIP()).Warn("Webhook signature validation failed")
		respondError(c, http.StatusUnauthorized, models.ErrCodeInvalidSignature, "Invalid webhook signature")
		return
	}

	var event services.PaystackWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.WithError(err).Warn("Failed to parse webhook payload")
		respondSuccess(c, "Webhook received", nil)
		return
	}

	if err := h.paymentService.HandleWebhook(&event); err != nil {
		// Still 200: the gateway retries on its own schedule and the
		// client-side verify path settles the payment regardless
		h.logger.WithError(err).WithField("event", event.Event).Error("Failed to process webhook")
	}

	respondSuccess(c, "Webhook received", nil)
}

// MyPayments handles GET /api/v1/payments/my-payments
func (h *PaymentHandler) MyPayments(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	page, limit, offset := parsePagination(c)

	payments, err := h.payments.GetByUserID(userCtx.UserID, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch user payments")
		respondInternalError(c, "Failed to fetch payments")
		return
	}

	total, err := h.payments.CountByUserID(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count user payments")
		respondInternalError(c, "Failed to fetch payments")
		return
	}

	respondList(c, "", payments, models.NewPagination(page, limit, total))
}

// Get handles GET /api/v1/payments/reference/:reference
func (h *PaymentHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	payment, err := h.payments.GetByReference(c.Param("reference"))
	if err != nil {
		respondError(c, http.StatusNotFound, models.ErrCodePaymentNotFound, "Payment not found")
		return
	}

	if payment.UserID != userCtx.UserID && !userCtx.IsAdmin() {
		respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "You do not have access to this payment")
		return
	}

	respondSuccess(c, "", payment)
}

// List handles GET /api/v1/admin/payments
func (h *PaymentHandler) List(c *gin.Context) {
	page, limit, offset := parsePagination(c)
	status := c.Query("status")

	payments, err := h.payments.List(status, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list payments")
		respondInternalError(c, "Failed to fetch payments")
		return
	}

	total, err := h.payments.Count(status)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count payments")
		respondInternalError(c, "Failed to fetch payments")
		return
	}

	respondList(c, "", payments, models.NewPagination(page, limit, total))
}

// Refund handles POST /api/v1/admin/payments/:id/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.RefundPayment(paymentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotRefundable):
			respondError(c, http.StatusConflict, models.ErrCodeConflict, "Only successful payments can be refunded")
		case err.Error() == "payment not found":
			respondError(c, http.StatusNotFound, models.ErrCodePaymentNotFound, "Payment not found")
		default:
			h.logger.WithError(err).Error("Failed to refund payment")
			respondInternalError(c, "Failed to refund payment")
		}
		return
	}

	respondSuccess(c, "Payment refunded", payment)
}

// Stats handles GET /api/v1/admin/payments/stats
func (h *PaymentHandler) Stats(c *gin.Context) {
	stats, err := h.payments.Stats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch payment stats")
		respondInternalError(c, "Failed to fetch stats")
		return
	}

	respondSuccess(c, "", stats)
}

// sendPaymentConfirmation emails the receipt, logging failures
func (h *PaymentHandler) sendPaymentConfirmation(payment *models.Payment) {
	user, err := h.users.GetByID(payment.UserID)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load user for payment confirmation email")
		return
	}

	subject, body := mail.PaymentConfirmationEmail(user.Name, payment.Reference, payment.Amount)
	if err := h.mailer.Send(user.Email, subject, body); err != nil {
		h.logger.WithError(err).Warn("Failed to send payment confirmation email")
	}
}
