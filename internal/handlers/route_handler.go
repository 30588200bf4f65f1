package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/staya/travel-booking-backend/internal/database"
	"github.com/staya/travel-booking-backend/internal/models"
	"github.com/staya/travel-booking-backend/internal/services"
)

// RouteHandler handles route and pricing HTTP requests
type RouteHandler struct {
	routes    *database.RouteRepository
	locations *database.LocationRepository
	pricing   *services.PricingService
	logger    *logrus.Logger
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(
	routes *database.RouteRepository,
	locations *database.LocationRepository,
	pricing *services.PricingService,
	logger *logrus.Logger,
) *RouteHandler {
	return &RouteHandler{
		routes:    routes,
		locations: locations,
		pricing:   pricing,
		logger:    logger,
	}
}

// List handles GET /api/v1/routes
func (h *RouteHandler) List(c *gin.Context) {
	page, limit, offset := parsePagination(c)

	routes, err := h.routes.List(limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list routes")
		respondInternalError(c, "Failed to fetch routes")
		return
	}

	total, err := h.routes.Count()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count routes")
		respondInternalError(c, "Failed to fetch routes")
		return
	}

	respondList(c, "", routes, models.NewPagination(page, limit, total))
}

// Get handles GET /api/v1/routes/:id
func (h *RouteHandler) Get(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid route ID")
		return
	}

	route, err := h.routes.GetByID(routeID)
	if err != nil {
		respondError(c, http.StatusNotFound, models.ErrCodeRouteNotFound, "Route not found")
		return
	}

	respondSuccess(c, "", route)
}

// Search handles GET /api/v1/routes/search?from=&to=
// The pair is unordered: searching Abuja-Lagos finds the Lagos-Abuja route.
func (h *RouteHandler) Search(c *gin.Context) {
	fromID, err := uuid.Parse(c.Query("from"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "A valid from query parameter is required")
		return
	}

	toID, err := uuid.Parse(c.Query("to"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "A valid to query parameter is required")
		return
	}

	route, err := h.routes.FindByLocationPair(fromID, toID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, models.ErrCodeRouteNotFound, "No route serves this location pair")
			return
		}
		h.logger.WithError(err).Error("Failed to search routes")
		respondInternalError(c, "Failed to search routes")
		return
	}

	respondSuccess(c, "", route)
}

// Popular handles GET /api/v1/routes/popular
func (h *RouteHandler) Popular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	routes, err := h.routes.GetPopular(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch popular routes")
		respondInternalError(c, "Failed to fetch routes")
		return
	}

	respondSuccess(c, "", routes)
}

// FromLocation handles GET /api/v1/routes/from/:locationId
func (h *RouteHandler) FromLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("locationId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid location ID")
		return
	}

	routes, err := h.routes.GetByFromLocation(locationID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch routes from location")
		respondInternalError(c, "Failed to fetch routes")
		return
	}

	respondSuccess(c, "", routes)
}

// CalculatePrice handles POST /api/v1/routes/calculate-price.
// An unserved pair is not an error: the quote comes back with
// available=false so the client can render "no route" without
// special-casing a 404.
func (h *RouteHandler) CalculatePrice(c *gin.Context) {
	var req models.CalculatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	route, err := h.routes.FindByLocationPair(req.FromLocationID, req.ToLocationID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		h.logger.WithError(err).Error("Failed to search routes for quote")
		respondInternalError(c, "Failed to calculate price")
		return
	}

	quote := h.pricing.Quote(route, req.TransportType, req.Passengers, req.DepartureDate, time.Now())
	respondSuccess(c, "", quote)
}

// Create handles POST /api/v1/admin/routes
func (h *RouteHandler) Create(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if req.FromLocationID == req.ToLocationID {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "A route cannot connect a location to itself")
		return
	}

	// Both endpoints must exist and be active
	if _, err := h.locations.GetByID(req.FromLocationID); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeLocationNotFound, "Origin location not found")
		return
	}
	if _, err := h.locations.GetByID(req.ToLocationID); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeLocationNotFound, "Destination location not found")
		return
	}

	route := &models.Route{
		FromLocationID:  req.FromLocationID,
		ToLocationID:    req.ToLocationID,
		DistanceKM:      req.DistanceKM,
		Duration:        req.Duration,
		BasePrice:       req.BasePrice,
		TransportModes:  req.TransportModes,
		PopularityScore: req.PopularityScore,
	}

	if err := h.routes.Create(route); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			respondError(c, http.StatusConflict, models.ErrCodeDuplicateRoute, "A route already exists for this location pair")
			return
		}
		h.logger.WithError(err).Error("Failed to create route")
		respondInternalError(c, "Failed to create route")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"route_id": route.ID,
		"from":     route.FromLocationID,
		"to":       route.ToLocationID,
	}).Info("Route created")

	respondCreated(c, "Route created", route)
}

// Update handles PUT /api/v1/admin/routes/:id
func (h *RouteHandler) Update(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidation, "Invalid route ID")
		return
	}

	var req models.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	route, err := h.routes.Update(routeID, &req)
	if err != nil {
		if err.Error() == "route not found" {
			respondError(c, http.StatusNotFound, models.ErrCodeRouteNotFound, "Route not found")
			return
		}
		h.logger.WithError(err).Error("Failed to update route")
		respondInternalError(c, "Failed to update route")
		return
	}

	respondSuccess(c, "Route updated", route)
}
