package database

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/staya/travel-booking-backend/internal/models"
)

const locationColumns = `id, name, state, country, latitude, longitude,
	is_active, created_at, updated_at`

// earthRadiusKM is used by the haversine distance calculation
const earthRadiusKM = 6371.0

// LocationRepository handles location database operations
type LocationRepository struct {
	db DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Create inserts a new location
func (r *LocationRepository) Create(location *models.Location) error {
	if location.ID == uuid.Nil {
		location.ID = uuid.New()
	}
	now := time.Now()
	location.CreatedAt = now
	location.UpdatedAt = now
	location.IsActive = true

	query := `
		INSERT INTO locations (
			id, name, state, country, latitude, longitude,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		query,
		location.ID, location.Name, location.State, location.Country,
		location.Latitude, location.Longitude,
		location.IsActive, location.CreatedAt, location.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}

	return nil
}

// GetByID retrieves an active location by ID
func (r *LocationRepository) GetByID(locationID uuid.UUID) (*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1 AND is_active = true`

	location, err := r.scanLocation(r.db.QueryRow(query, locationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("location not found")
		}
		return nil, fmt.Errorf("failed to fetch location: %w", err)
	}

	return location, nil
}

// List retrieves active locations, optionally filtered by state
func (r *LocationRepository) List(state string, limit, offset int) ([]models.Location, error) {
	var rows *sql.Rows
	var err error

	if state != "" {
		query := `SELECT ` + locationColumns + `
			FROM locations
			WHERE is_active = true AND LOWER(state) = LOWER($1)
			ORDER BY name
			LIMIT $2 OFFSET $3`
		rows, err = r.db.Query(query, state, limit, offset)
	} else {
		query := `SELECT ` + locationColumns + `
			FROM locations
			WHERE is_active = true
			ORDER BY name
			LIMIT $1 OFFSET $2`
		rows, err = r.db.Query(query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	return r.scanLocations(rows)
}

// Count returns the number of active locations, optionally filtered by state
func (r *LocationRepository) Count(state string) (int64, error) {
	var count int64
	var err error

	if state != "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM locations WHERE is_active = true AND LOWER(state) = LOWER($1)`, state).Scan(&count)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM locations WHERE is_active = true`).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count locations: %w", err)
	}

	return count, nil
}

// GetByState retrieves all active locations within a state
func (r *LocationRepository) GetByState(state string) ([]models.Location, error) {
	query := `SELECT ` + locationColumns + `
		FROM locations
		WHERE is_active = true AND LOWER(state) = LOWER($1)
		ORDER BY name`

	rows, err := r.db.Query(query, state)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations by state: %w", err)
	}
	defer rows.Close()

	return r.scanLocations(rows)
}

// FindNearby returns active locations within radiusKM of the given point,
// closest first. A bounding box prefilters candidates in SQL before the
// exact haversine distance check.
func (r *LocationRepository) FindNearby(lat, lng, radiusKM float64) ([]models.Location, error) {
	latDelta := radiusKM / 111.0 // ~111km per degree of latitude
	lngDelta := radiusKM / (111.0 * math.Cos(lat*math.Pi/180))
	if math.IsInf(lngDelta, 0) || math.IsNaN(lngDelta) {
		lngDelta = 180
	}

	query := `SELECT ` + locationColumns + `
		FROM locations
		WHERE is_active = true
		  AND latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4`

	rows, err := r.db.Query(query, lat-latDelta, lat+latDelta, lng-lngDelta, lng+lngDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby locations: %w", err)
	}
	defer rows.Close()

	candidates, err := r.scanLocations(rows)
	if err != nil {
		return nil, err
	}

	nearby := []models.Location{}
	for _, loc := range candidates {
		if haversineKM(lat, lng, loc.Latitude, loc.Longitude) <= radiusKM {
			nearby = append(nearby, loc)
		}
	}

	// Closest first
	sort.Slice(nearby, func(i, j int) bool {
		return haversineKM(lat, lng, nearby[i].Latitude, nearby[i].Longitude) <
			haversineKM(lat, lng, nearby[j].Latitude, nearby[j].Longitude)
	})

	return nearby, nil
}

// Update applies the non-nil fields of the request
func (r *LocationRepository) Update(locationID uuid.UUID, req *models.UpdateLocationRequest) (*models.Location, error) {
	query := `
		UPDATE locations
		SET name = COALESCE($2, name),
			state = COALESCE($3, state),
			country = COALESCE($4, country),
			latitude = COALESCE($5, latitude),
			longitude = COALESCE($6, longitude),
			is_active = COALESCE($7, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + locationColumns

	location, err := r.scanLocation(r.db.QueryRow(
		query,
		locationID, req.Name, req.State, req.Country,
		req.Latitude, req.Longitude, req.IsActive,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("location not found")
		}
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	return location, nil
}

// SoftDelete deactivates a location without removing its rows
func (r *LocationRepository) SoftDelete(locationID uuid.UUID) error {
	query := `
		UPDATE locations
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND is_active = true
	`

	result, err := r.db.Exec(query, locationID)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("location not found")
	}

	return nil
}

// scanLocation scans a single location row
func (r *LocationRepository) scanLocation(row scanner) (*models.Location, error) {
	location := &models.Location{}
	err := row.Scan(
		&location.ID, &location.Name, &location.State, &location.Country,
		&location.Latitude, &location.Longitude,
		&location.IsActive, &location.CreatedAt, &location.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return location, nil
}

// scanLocations scans multiple location rows
func (r *LocationRepository) scanLocations(rows *sql.Rows) ([]models.Location, error) {
	locations := []models.Location{}
	for rows.Next() {
		var location models.Location
		err := rows.Scan(
			&location.ID, &location.Name, &location.State, &location.Country,
			&location.Latitude, &location.Longitude,
			&location.IsActive, &location.CreatedAt, &location.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}

// haversineKM returns the great-circle distance between two points
func haversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}
