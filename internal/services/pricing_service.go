package services

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/staya/travel-booking-backend/internal/models"
)

// Demand multiplier bounds. Quotes never leave this band no matter how
// popular the route or how close the departure.
const (
	MinDemandMultiplier = 0.90
	MaxDemandMultiplier = 1.30

	// Prices are rounded to the nearest 500 naira
	priceRoundingStep = 500.0

	// Departures further out than this window get no urgency premium
	urgencyWindowHours = 720.0 // 30 days
)

// PricingService calculates trip price quotes
type PricingService struct {
	logger *logrus.Logger
}

// NewPricingService creates a new pricing service
func NewPricingService(logger *logrus.Logger) *PricingService {
	return &PricingService{logger: logger}
}

// DemandMultiplier derives the demand multiplier from route popularity
// and time to departure. The same inputs always produce the same
// multiplier, so repeated quotes for one trip agree.
func (s *PricingService) DemandMultiplier(popularityScore int, hoursToDeparture float64) float64 {
	popularity := float64(popularityScore)
	if popularity > 100 {
		popularity = 100
	}
	if popularity < 0 {
		popularity = 0
	}
	popularityFactor := popularity / 100

	urgencyFactor := 0.0
	if hoursToDeparture < urgencyWindowHours {
		if hoursToDeparture < 0 {
			hoursToDeparture = 0
		}
		urgencyFactor = 1 - hoursToDeparture/urgencyWindowHours
	}

	multiplier := MinDemandMultiplier + 0.25*popularityFactor + 0.15*urgencyFactor

	if multiplier > MaxDemandMultiplier {
		multiplier = MaxDemandMultiplier
	}
	if multiplier < MinDemandMultiplier {
		multiplier = MinDemandMultiplier
	}

	return multiplier
}

// RoundToStep rounds a price to the nearest 500 naira
func RoundToStep(price float64) float64 {
	return math.Round(price/priceRoundingStep) * priceRoundingStep
}

// Quote prices a trip on the given route. A nil route yields the
// "unavailable" sentinel quote instead of an error.
func (s *PricingService) Quote(route *models.Route, transportType models.TransportType, passengers int, departure time.Time, now time.Time) *models.PriceQuote {
	if route == nil {
		return &models.PriceQuote{
			Available:  false,
			Passengers: passengers,
			Currency:   "NGN",
		}
	}

	unitPrice := route.BasePrice
	quotedType := transportType
	if mode, ok := route.FindTransportMode(transportType); ok {
		if mode.Availability == models.AvailabilityUnavailable {
			return &models.PriceQuote{
				Available:  false,
				Passengers: passengers,
				Currency:   "NGN",
			}
		}
		unitPrice = mode.Price
	}

	multiplier := s.DemandMultiplier(route.PopularityScore, departure.Sub(now).Hours())
	total := RoundToStep(unitPrice * float64(passengers) * multiplier)

	s.logger.WithFields(logrus.Fields{
		"route_id":   route.ID,
		"transport":  quotedType,
		"passengers": passengers,
		"multiplier": multiplier,
		"total":      total,
	}).Debug("Price quote calculated")

	return &models.PriceQuote{
		Available:     true,
		RouteID:       &route.ID,
		TransportType: quotedType,
		UnitPrice:     unitPrice,
		Passengers:    passengers,
		Multiplier:    multiplier,
		TotalPrice:    total,
		Currency:      "NGN",
	}
}
