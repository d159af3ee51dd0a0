package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the SQLite connection backing the location and rating stores.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

var (
	ErrNotFound     = models.ErrNotFound
	ErrInvalidScore = errors.New("score must be between 1 and 5")
)

// earthRadiusMeters for haversine distance.
const earthRadiusMeters = 6371000.0

// NewDB opens (and bootstraps) the database at path.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and a busy timeout so concurrent readers don't trip over
	// rating writes.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS locations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			hours TEXT NOT NULL DEFAULT '{}',
			current_score REAL,
			last_rated_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			id TEXT PRIMARY KEY,
			location_id TEXT NOT NULL,
			score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
			user_id TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(location_id) REFERENCES locations(id)
		)`,

		// Bounding-box prefilter for nearby queries.
		`CREATE INDEX IF NOT EXISTS idx_locations_lat_lng ON locations(latitude, longitude)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_location ON ratings(location_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_user ON ratings(user_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// CreateLocation inserts a location. Used by the ingestion path and tests;
// the query engine itself never creates locations.
func (db *DB) CreateLocation(ctx context.Context, loc *models.Location) error {
	if !models.ValidCoordinate(loc.Latitude, loc.Longitude) {
		return fmt.Errorf("invalid coordinate (%f, %f)", loc.Latitude, loc.Longitude)
	}
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}

	hours, err := json.Marshal(loc.Hours)
	if err != nil {
		return fmt.Errorf("failed to marshal hours: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO locations (id, name, address, latitude, longitude, hours, current_score, last_rated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.ID, loc.Name, loc.Address, loc.Latitude, loc.Longitude,
		string(hours), loc.CurrentScore, loc.LastRatedAt,
	)
	return err
}

// GetLocation returns a location by id, or ErrNotFound.
func (db *DB) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, address, latitude, longitude, hours, current_score, last_rated_at, created_at
		FROM locations WHERE id = ?`, id)

	loc, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	loc.MarkRecency(time.Now())
	return loc, nil
}

// Nearby returns every location within radiusMeters of the center, with
// exact haversine distance, sorted nearest first. A coarse lat/lng
// bounding box narrows candidates in SQL before the exact distance check.
func (db *DB) Nearby(ctx context.Context, lat, lng, radiusMeters float64) ([]models.NearbyLocation, error) {
	latDelta := radiusMeters / 111320.0
	lngDelta := latDelta
	if cos := math.Cos(lat * math.Pi / 180); cos > 0.01 {
		lngDelta = latDelta / cos
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, address, latitude, longitude, hours, current_score, last_rated_at, created_at
		FROM locations
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`,
		lat-latDelta, lat+latDelta, lng-lngDelta, lng+lngDelta,
	)
	if err != nil {
		return nil, fmt.Errorf("nearby query failed: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var out []models.NearbyLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("nearby scan failed: %w", err)
		}
		dist := Haversine(lat, lng, loc.Latitude, loc.Longitude)
		if dist > radiusMeters {
			continue
		}
		loc.MarkRecency(now)
		out = append(out, models.NearbyLocation{Location: *loc, DistanceMeters: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearby rows failed: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out, nil
}

// RatingsFor returns all ratings for a location, newest first.
func (db *DB) RatingsFor(ctx context.Context, locationID string) ([]models.Rating, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, location_id, score, user_id, created_at
		FROM ratings WHERE location_id = ? ORDER BY created_at DESC`, locationID)
	if err != nil {
		return nil, fmt.Errorf("ratings query failed: %w", err)
	}
	defer rows.Close()

	ratings := make([]models.Rating, 0)
	for rows.Next() {
		var r models.Rating
		var userID sql.NullString
		if err := rows.Scan(&r.ID, &r.LocationID, &r.Score, &userID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("rating scan failed: %w", err)
		}
		r.UserID = userID.String
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// CreateRating inserts an immutable rating and returns its id. The caller
// is responsible for cache invalidation before acknowledging the write.
func (db *DB) CreateRating(ctx context.Context, locationID string, score int, userID string) (string, error) {
	if !models.ValidScore(score) {
		return "", ErrInvalidScore
	}

	// Reject unknown locations up front so the FK violation doesn't
	// surface as an opaque constraint error.
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM locations WHERE id = ?`, locationID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("location lookup failed: %w", err)
	}

	id := uuid.NewString()
	var user any
	if userID != "" {
		user = userID
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO ratings (id, location_id, score, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, locationID, score, user, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create rating: %w", err)
	}
	return id, nil
}

// UpdateDenormalizedScore writes the recomputed current score and latest
// rating timestamp back onto the location row.
func (db *DB) UpdateDenormalizedScore(ctx context.Context, locationID string, score *float64, lastRatedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE locations SET current_score = ?, last_rated_at = ? WHERE id = ?`,
		score, lastRatedAt, locationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update denormalized score: %w", err)
	}
	return nil
}

// DeleteRating removes a rating. Administrative/test use only; the normal
// flow never deletes ratings.
func (db *DB) DeleteRating(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM ratings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AllLocations returns every location. Used by the ratings export.
func (db *DB) AllLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, address, latitude, longitude, hours, current_score, last_rated_at, created_at
		FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("locations query failed: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var out []models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("location scan failed: %w", err)
		}
		loc.MarkRecency(now)
		out = append(out, *loc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*models.Location, error) {
	var loc models.Location
	var hours string
	var score sql.NullFloat64
	var lastRated sql.NullTime

	err := row.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude,
		&hours, &score, &lastRated, &loc.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(hours), &loc.Hours); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hours: %w", err)
	}
	if score.Valid {
		loc.CurrentScore = &score.Float64
	}
	if lastRated.Valid {
		loc.LastRatedAt = &lastRated.Time
	}
	return &loc, nil
}

// Haversine returns the great-circle distance in meters between two
// coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const deg = math.Pi / 180
	dLat := (lat2 - lat1) * deg
	dLng := (lng2 - lng1) * deg

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg)*math.Cos(lat2*deg)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
