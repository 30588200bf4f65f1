package services

import (
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staya/travel-booking-backend/internal/models"
)

func newPricingService() *PricingService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewPricingService(logger)
}

func pricingTestRoute(popularity int) *models.Route {
	return &models.Route{
		ID:              uuid.New(),
		FromLocationID:  uuid.New(),
		ToLocationID:    uuid.New(),
		BasePrice:       10000,
		PopularityScore: popularity,
		IsActive:        true,
		TransportModes: models.TransportModes{
			{Type: models.TransportBus, Operator: "GIGM", Price: 8500, Duration: "9h", Availability: models.AvailabilityAvailable},
			{Type: models.TransportFlight, Operator: "Air Peace", Price: 85000, Duration: "1h 10m", Availability: models.AvailabilityUnavailable},
		},
	}
}

func TestDemandMultiplier(t *testing.T) {
	service := newPricingService()

	t.Run("Stays Within Bounds", func(t *testing.T) {
		cases := []struct {
			popularity int
			hours      float64
		}{
			{0, 2000},
			{100, 0},
			{150, -10},
			{-5, 360},
			{50, 720},
		}

		for _, tc := range cases {
			m := service.DemandMultiplier(tc.popularity, tc.hours)
			assert.GreaterOrEqual(t, m, MinDemandMultiplier)
			assert.LessOrEqual(t, m, MaxDemandMultiplier)
		}
	})

	t.Run("Quiet Route Far Out Gets Floor", func(t *testing.T) {
		m := service.DemandMultiplier(0, 2000)
		assert.Equal(t, MinDemandMultiplier, m)
	})

	t.Run("Popular Route Departing Now Gets Ceiling", func(t *testing.T) {
		m := service.DemandMultiplier(100, 0)
		assert.Equal(t, MaxDemandMultiplier, m)
	})

	t.Run("Popularity Capped At 100", func(t *testing.T) {
		assert.Equal(t, service.DemandMultiplier(100, 360), service.DemandMultiplier(250, 360))
	})

	t.Run("Deterministic", func(t *testing.T) {
		first := service.DemandMultiplier(60, 120)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, service.DemandMultiplier(60, 120))
		}
	})

	t.Run("Halfway Urgency", func(t *testing.T) {
		// 360h out of 720h leaves half the urgency premium
		m := service.DemandMultiplier(0, 360)
		assert.InDelta(t, 0.90+0.15*0.5, m, 1e-9)
	})
}

func TestRoundToStep(t *testing.T) {
	assert.Equal(t, 17000.0, RoundToStep(17120))
	assert.Equal(t, 17500.0, RoundToStep(17250))
	assert.Equal(t, 17500.0, RoundToStep(17499))
	assert.Equal(t, 0.0, RoundToStep(120))
	assert.Equal(t, 500.0, RoundToStep(250))
}

func TestQuote(t *testing.T) {
	service := newPricingService()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Uses Transport Mode Price", func(t *testing.T) {
		route := pricingTestRoute(40)
		departure := now.Add(100 * time.Hour)

		quote := service.Quote(route, models.TransportBus, 2, departure, now)
		require.True(t, quote.Available)
		require.NotNil(t, quote.RouteID)
		assert.Equal(t, route.ID, *quote.RouteID)
		assert.Equal(t, 8500.0, quote.UnitPrice)
		assert.Equal(t, "NGN", quote.Currency)

		expectedMultiplier := service.DemandMultiplier(40, departure.Sub(now).Hours())
		assert.Equal(t, expectedMultiplier, quote.Multiplier)
		assert.Equal(t, RoundToStep(8500*2*expectedMultiplier), quote.TotalPrice)
		assert.Equal(t, 0.0, math.Mod(quote.TotalPrice, 500))
	})

	t.Run("Falls Back To Base Price", func(t *testing.T) {
		route := pricingTestRoute(0)
		departure := now.Add(2000 * time.Hour)

		quote := service.Quote(route, models.TransportTrain, 1, departure, now)
		require.True(t, quote.Available)
		assert.Equal(t, 10000.0, quote.UnitPrice)
		assert.Equal(t, RoundToStep(10000*MinDemandMultiplier), quote.TotalPrice)
	})

	t.Run("Nil Route Yields Unavailable Sentinel", func(t *testing.T) {
		quote := service.Quote(nil, models.TransportBus, 3, now.Add(48*time.Hour), now)
		assert.False(t, quote.Available)
		assert.Nil(t, quote.RouteID)
		assert.Equal(t, 3, quote.Passengers)
		assert.Equal(t, 0.0, quote.TotalPrice)
		assert.Equal(t, "NGN", quote.Currency)
	})

	t.Run("Unavailable Mode Yields Sentinel", func(t *testing.T) {
		route := pricingTestRoute(40)

		quote := service.Quote(route, models.TransportFlight, 1, now.Add(48*time.Hour), now)
		assert.False(t, quote.Available)
		assert.Equal(t, 0.0, quote.TotalPrice)
	})
}
