package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/middleware"
	"github.com/staya/travel-booking-backend/internal/models"
	"github.com/staya/travel-booking-backend/internal/utils"
	"github.com/staya/travel-booking-backend/pkg/mail"
	"github.com/staya/travel-booking-backend/pkg/validator"
)

// referenceRetries bounds how many times booking creation retries after
// a reference collision
const referenceRetries = 3

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	bookings       *database.BookingRepository
	routes         *database.RouteRepository
	users          *database.UserRepository
	phoneValidator *validator.PhoneValidator
	mailer         mail.Mailer
	logger         *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	bookings *database.BookingRepository,
	routes *database.RouteRepository,
	users *database.UserRepository,
	phoneValidator *validator.PhoneValidator,
	mailer mail.Mailer,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookings:       bookings,
		routes:         routes,
		users:          users,
		phoneValidator: phoneValidator,
		mailer:         mailer,
		logger:         logger,
	}
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	now := time.Now()
	if err := req.Validate(now); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
		return
	}

	phone, err := h.phoneValidator.Validate(req.ContactPhone)
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
		return
	}

	route, err := h.routes.FindByLocationPair(req.FromLocationID, req.ToLocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, models.ErrCodeRouteNotFound, "No route serves this location pair")
			return
		}
		h.logger.WithError(err).Error("Failed to look up route")
		respondInternalError(c, "Failed to create booking")
		return
	}

	mode, ok := route.FindTransportMode(req.TransportType)
	if !ok || mode.Availability == models.AvailabilityUnavailable {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "The selected transport type is not available on this route")
		return
	}

	booking := &models.Booking{
		UserID:          userCtx.UserID,
		RouteID:         route.ID,
		FromLocationID:  req.FromLocationID,
		ToLocationID:    req.ToLocationID,
		TripType:        req.TripType,
		DepartureDate:   req.DepartureDate,
		ReturnDate:      req.ReturnDate,
		Passengers:      req.Passengers,
		TransportType:   req.TransportType,
		TransportFare:   mode.Price,
		TotalPrice:      mode.Price * float64(req.Passengers),
		Status:          models.BookingStatusPending,
		PaymentStatus:   models.BookingPaymentPending,
		ContactEmail:    strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactPhone:    phone,
		SpecialRequests: req.SpecialRequests,
	}

	// The date-prefixed reference has a small random suffix, so retry on
	// the rare collision
	var createErr error
	for attempt := 0; attempt < referenceRetries; attempt++ {
		booking.Reference = utils.GenerateBookingReference(now)
		createErr = h.bookings.Create(booking)
		if createErr == nil || !strings.Contains(createErr.Error(), "reference collision") {
			break
		}
	}
	if createErr != nil {
		h.logger.WithError(createErr).Error("Failed to create booking")
		respondInternalError(c, "Failed to create booking")
		return
	}

	if err := h.routes.IncrementPopularity(route.ID); err != nil {
		h.logger.WithError(err).Warn("Failed to increment route popularity")
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"reference":  booking.Reference,
		"user_id":    booking.UserID,
		"total":      booking.TotalPrice,
	}).Info("Booking created")

	h.sendBookingEmail(booking, route)

	respondCreated(c, "Booking created", booking)
}

// MyBookings handles GET /api/v1/bookings/my-bookings
func (h *BookingHandler) MyBookings(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	page, limit, offset := parsePagination(c)
	status := c.Query("status")

	bookings, err := h.bookings.GetByUserID(userCtx.UserID, status, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch user bookings")
		respondInternalError(c, "Failed to fetch bookings")
		return
	}

	total, err := h.bookings.CountByUserID(userCtx.UserID, status)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count user bookings")
		respondInternalError(c, "Failed to fetch bookings")
		return
	}

	respondList(c, "", bookings, models.NewPagination(page, limit, total))
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	booking, ok := h.loadOwnedBooking(c, userCtx)
	if !ok {
		return
	}

	respondSuccess(c, "", booking)
}

// Update handles PUT /api/v1/bookings/:id.
// Only contact details and special requests of a pending booking change.
func (h *BookingHandler) Update(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	booking, ok := h.loadOwnedBooking(c, userCtx)
	if !ok {
		return
	}

	if !booking.CanBeUpdated() {
		respondError(c, http.StatusConflict, models.ErrCodeBookingNotUpdatable, "Only pending bookings can be updated")
		return
	}

	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if req.ContactPhone != nil {
		phone, err := h.phoneValidator.Validate(*req.ContactPhone)
		if err != nil {
			respondError(c, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
			return
		}
		req.ContactPhone = &phone
	}

	updated, err := h.bookings.UpdateContact(booking.ID, &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update booking")
		respondInternalError(c, "Failed to update booking")
		return
	}

	respondSuccess(c, "Booking updated", updated)
}

// Cancel handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	booking, ok := h.loadOwnedBooking(c, userCtx)
	if !ok {
		return
	}

	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondValidationError(c, err)
		return
	}

	if err := booking.Cancel(time.Now(), req.Reason); err != nil {
		respondError(c, http.StatusConflict, models.ErrCodeCancellationBlocked,
			"Bookings cannot be cancelled with less than 24 hours to departure")
		return
	}

	if err := h.bookings.Cancel(booking); err != nil {
		h.logger.WithError(err).Error("Failed to cancel booking")
		respondInternalError(c, "Failed to cancel booking")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"reference":  booking.Reference,
		"refund":     booking.RefundAmount,
	}).Info("Booking cancelled")

	h.sendCancellationEmail(booking)

	respondSuccess(c, "Booking cancelled", booking)
}

// List handles GET /api/v1/admin/bookings
func (h *BookingHandler) List(c *gin.Context) {
	page, limit, offset := parsePagination(c)
	status := c.Query("status")

	bookings, err := h.bookings.List(status, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		respondInternalError(c, "Failed to fetch bookings")
		return
	}

	total, err := h.bookings.Count(status)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count bookings")
		respondInternalError(c, "Failed to fetch bookings")
		return
	}

	respondList(c, "", bookings, models.NewPagination(page, limit, total))
}

// UpdateStatus handles PUT /api/v1/admin/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid booking ID")
		return
	}

	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	booking, err := h.bookings.GetByID(bookingID)
	if err != nil {
		respondError(c, http.StatusNotFound, models.ErrCodeBookingNotFound, "Booking not found")
		return
	}

	// Completed trips are history and stay that way
	if booking.Status == models.BookingStatusCompleted && req.Status != models.BookingStatusCompleted {
		respondError(c, http.StatusConflict, models.ErrCodeInvalidStateChange, "Completed bookings cannot change status")
		return
	}

	if err := h.bookings.UpdateStatus(bookingID, req.Status); err != nil {
		h.logger.WithError(err).Error("Failed to update booking status")
		respondInternalError(c, "Failed to update booking status")
		return
	}

	booking, err = h.bookings.GetByID(bookingID)
	if err != nil {
		respondInternalError(c, "Failed to fetch booking")
		return
	}

	respondSuccess(c, "Booking status updated", booking)
}

// Stats handles GET /api/v1/admin/bookings/stats
func (h *BookingHandler) Stats(c *gin.Context) {
	stats, err := h.bookings.Stats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch booking stats")
		respondInternalError(c, "Failed to fetch stats")
		return
	}

	respondSuccess(c, "", stats)
}

// loadOwnedBooking fetches the booking in the :id param and enforces
// owner-or-admin access. On failure the response is already written.
func (h *BookingHandler) loadOwnedBooking(c *gin.Context, userCtx middleware.UserContext) (*models.Booking, bool) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid booking ID")
		return nil, false
	}

	booking, err := h.bookings.GetByID(bookingID)
	if err != nil {
		respondError(c, http.StatusNotFound, models.ErrCodeBookingNotFound, "Booking not found")
		return nil, false
	}

	if booking.UserID != userCtx.UserID && !userCtx.IsAdmin() {
		respondError(c, http.StatusForbidden, models.ErrCodeForbidden, "You do not have access to this booking")
		return nil, false
	}

	return booking, true
}

// sendBookingEmail acknowledges the new booking, logging failures
func (h *BookingHandler) sendBookingEmail(booking *models.Booking, route *models.Route) {
	user, err := h.users.GetByID(booking.UserID)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load user for booking email")
		return
	}

	subject, body := mail.BookingConfirmationEmail(
		user.Name, booking.Reference,
		route.FromLocationName, route.ToLocationName,
		booking.TotalPrice,
	)
	if err := h.mailer.Send(booking.ContactEmail, subject, body); err != nil {
		h.logger.WithError(err).Warn("Failed to send booking email")
	}
}

// sendCancellationEmail notifies the traveller, logging failures
func (h *BookingHandler) sendCancellationEmail(booking *models.Booking) {
	user, err := h.users.GetByID(booking.UserID)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load user for cancellation email")
		return
	}

	refund := 0.0
	if booking.RefundAmount != nil {
		refund = *booking.RefundAmount
	}

	subject, body := mail.BookingCancellationEmail(user.Name, booking.Reference, refund)
	if err := h.mailer.Send(booking.ContactEmail, subject, body); err != nil {
		h.logger.WithError(err).Warn("Failed to send cancellation email")
	}
}
