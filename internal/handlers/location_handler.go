package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/models"
)

// LocationHandler handles location-related HTTP requests
type LocationHandler struct {
	locations *database.LocationRepository
	logger    *logrus.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations *database.LocationRepository, logger *logrus.Logger) *LocationHandler {
	return &LocationHandler{
		locations: locations,
		logger:    logger,
	}
}

// List handles GET /api/v1/locations
func (h *LocationHandler) List(c *gin.Context) {
	page, limit, offset := parsePagination(c)
	state := c.Query("state")

	locations, err := h.locations.List(state, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list locations")
		respondInternalError(c, "Failed to fetch locations")
		return
	}

	total, err := h.locations.Count(state)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count locations")
		respondInternalError(c, "Failed to fetch locations")
		return
	}

	respondList(c, "", locations, models.NewPagination(page, limit, total))
}

// Get handles GET /api/v1/locations/:id
func (h *LocationHandler) Get(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid location ID")
		return
	}

	location, err := h.locations.GetByID(locationID)
	if err != nil {
		respondError(c, http.StatusNotFound, models.ErrCodeLocationNotFound, "Location not found")
		return
	}

	respondSuccess(c, "", location)
}

// ByState handles GET /api/v1/locations/state/:state
func (h *LocationHandler) ByState(c *gin.Context) {
	state := c.Param("state")

	locations, err := h.locations.GetByState(state)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch locations by state")
		respondInternalError(c, "Failed to fetch locations")
		return
	}

	respondSuccess(c, "", locations)
}

// Nearby handles GET /api/v1/locations/nearby/:lat/:lng?radius=
func (h *LocationHandler) Nearby(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Param("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "A valid latitude is required")
		return
	}

	lng, err := strconv.ParseFloat(c.Param("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "A valid longitude is required")
		return
	}

	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "50"), 64)
	if err != nil || radius <= 0 || radius > 1000 {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "radius must be between 0 and 1000 km")
		return
	}

	locations, err := h.locations.FindNearby(lat, lng, radius)
	if err != nil {
		h.logger.WithError(err).Error("Failed to find nearby locations")
		respondInternalError(c, "Failed to fetch locations")
		return
	}

	respondSuccess(c, "", locations)
}

// Create handles POST /api/v1/admin/locations
func (h *LocationHandler) Create(c *gin.Context) {
	var req models.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	country := req.Country
	if country == "" {
		country = "Nigeria"
	}

	location := &models.Location{
		Name:      req.Name,
		State:     req.State,
		Country:   country,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	if err := h.locations.Create(location); err != nil {
		h.logger.WithError(err).Error("Failed to create location")
		respondInternalError(c, "Failed to create location")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"location_id": location.ID,
		"name":        location.Name,
	}).Info("Location created")

	respondCreated(c, "Location created", location)
}

// Update handles PUT /api/v1/admin/locations/:id
func (h *LocationHandler) Update(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid location ID")
		return
	}

	var req models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	location, err := h.locations.Update(locationID, &req)
	if err != nil {
		if err.Error() == "location not found" {
			respondError(c, http.StatusNotFound, models.ErrCodeLocationNotFound, "Location not found")
			return
		}
		h.logger.WithError(err).Error("Failed to update location")
		respondInternalError(c, "Failed to update location")
		return
	}

	respondSuccess(c, "Location updated", location)
}

// Delete handles DELETE /api/v1/admin/locations/:id
func (h *LocationHandler) Delete(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid location ID")
		return
	}

	if err := h.locations.SoftDelete(locationID); err != nil {
		if err.Error() == "location not found" {
			respondError(c, http.StatusNotFound, models.ErrCodeLocationNotFound, "Location not found")
			return
		}
		h.logger.WithError(err).Error("Failed to delete location")
		respondInternalError(c, "Failed to delete location")
		return
	}

	respondSuccess(c, "Location deactivated", nil)
}
