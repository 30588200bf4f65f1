package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/staya/travel-booking-backend/internal/models"
)

const routeColumns = `r.id, r.from_location_id, r.to_location_id, r.distance_km,
	r.duration, r.base_price, r.transport_modes, r.popularity_score,
	r.is_active, r.created_at, r.updated_at, fl.name, tl.name`

const routeJoins = `
	FROM routes r
	JOIN locations fl ON fl.id = r.from_location_id
	JOIN locations tl ON tl.id = r.to_location_id`

// RouteRepository handles route database operations
type RouteRepository struct {
	db DB
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create inserts a new route. The unordered location pair is unique:
// a duplicate in either direction fails the insert.
func (r *RouteRepository) Create(route *models.Route) error {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}
	now := time.Now()
	route.CreatedAt = now
	route.UpdatedAt = now
	route.IsActive = true

	query := `
		INSERT INTO routes (
			id, from_location_id, to_location_id, distance_km, duration,
			base_price, transport_modes, popularity_score,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(
		query,
		route.ID, route.FromLocationID, route.ToLocationID,
		route.DistanceKM, route.Duration, route.BasePrice,
		route.TransportModes, route.PopularityScore,
		route.IsActive, route.CreatedAt, route.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("route already exists for this location pair: %w", err)
		}
		return fmt.Errorf("failed to create route: %w", err)
	}

	return nil
}

// GetByID retrieves a route by ID
func (r *RouteRepository) GetByID(routeID uuid.UUID) (*models.Route, error) {
	query := `SELECT ` + routeColumns + routeJoins + ` WHERE r.id = $1`

	route, err := r.scanRoute(r.db.QueryRow(query, routeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("route not found")
		}
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}

	return route, nil
}

// List retrieves active routes with pagination
func (r *RouteRepository) List(limit, offset int) ([]models.Route, error) {
	query := `SELECT ` + routeColumns + routeJoins + `
		WHERE r.is_active = true
		ORDER BY r.popularity_score DESC, r.created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer rows.Close()

	return r.scanRoutes(rows)
}

// Count returns the number of active routes
func (r *RouteRepository) Count() (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM routes WHERE is_active = true`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}
	return count, nil
}

// FindByLocationPair finds the active route between two locations.
// The pair is unordered: Lagos-Abuja and Abuja-Lagos are the same route.
func (r *RouteRepository) FindByLocationPair(fromID, toID uuid.UUID) (*models.Route, error) {
	query := `SELECT ` + routeColumns + routeJoins + `
		WHERE r.is_active = true
		  AND ((r.from_location_id = $1 AND r.to_location_id = $2)
		    OR (r.from_location_id = $2 AND r.to_location_id = $1))
		LIMIT 1`

	route, err := r.scanRoute(r.db.QueryRow(query, fromID, toID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to search route: %w", err)
	}

	return route, nil
}

// GetPopular retrieves the most popular active routes
func (r *RouteRepository) GetPopular(limit int) ([]models.Route, error) {
	query := `SELECT ` + routeColumns + routeJoins + `
		WHERE r.is_active = true
		ORDER BY r.popularity_score DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch popular routes: %w", err)
	}
	defer rows.Close()

	return r.scanRoutes(rows)
}

// GetByFromLocation retrieves active routes departing a location.
// Routes are unordered pairs, so either endpoint matches.
func (r *RouteRepository) GetByFromLocation(locationID uuid.UUID) ([]models.Route, error) {
	query := `SELECT ` + routeColumns + routeJoins + `
		WHERE r.is_active = true
		  AND (r.from_location_id = $1 OR r.to_location_id = $1)
		ORDER BY r.popularity_score DESC`

	rows, err := r.db.Query(query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch routes from location: %w", err)
	}
	defer rows.Close()

	return r.scanRoutes(rows)
}

// Update applies the non-nil fields of the request
func (r *RouteRepository) Update(routeID uuid.UUID, req *models.UpdateRouteRequest) (*models.Route, error) {
	query := `
		UPDATE routes
		SET distance_km = COALESCE($2, distance_km),
			duration = COALESCE($3, duration),
			base_price = COALESCE($4, base_price),
			transport_modes = COALESCE($5, transport_modes),
			popularity_score = COALESCE($6, popularity_score),
			is_active = COALESCE($7, is_active),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(
		query,
		routeID, req.DistanceKM, req.Duration, req.BasePrice,
		req.TransportModes, req.PopularityScore, req.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update route: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("route not found")
	}

	return r.GetByID(routeID)
}

// IncrementPopularity bumps the popularity score when a route is booked
func (r *RouteRepository) IncrementPopularity(routeID uuid.UUID) error {
	query := `
		UPDATE routes
		SET popularity_score = popularity_score + 1, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(query, routeID)
	if err != nil {
		return fmt.Errorf("failed to increment popularity: %w", err)
	}

	return nil
}

// scanRoute scans a single route row with joined location names
func (r *RouteRepository) scanRoute(row scanner) (*models.Route, error) {
	route := &models.Route{}
	err := row.Scan(
		&route.ID, &route.FromLocationID, &route.ToLocationID,
		&route.DistanceKM, &route.Duration, &route.BasePrice,
		&route.TransportModes, &route.PopularityScore,
		&route.IsActive, &route.CreatedAt, &route.UpdatedAt,
		&route.FromLocationName, &route.ToLocationName,
	)
	if err != nil {
		return nil, err
	}
	return route, nil
}

// scanRoutes scans multiple route rows
func (r *RouteRepository) scanRoutes(rows *sql.Rows) ([]models.Route, error) {
	routes := []models.Route{}
	for rows.Next() {
		var route models.Route
		err := rows.Scan(
			&route.ID, &route.FromLocationID, &route.ToLocationID,
			&route.DistanceKM, &route.Duration, &route.BasePrice,
			&route.TransportModes, &route.PopularityScore,
			&route.IsActive, &route.CreatedAt, &route.UpdatedAt,
			&route.FromLocationName, &route.ToLocationName,
		)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}
