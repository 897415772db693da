package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

var _ repository.RideRepository = (*RideRepository)(nil)

const rideColumns = `id, rider_id, rider_name, origin, destination, departure_time, available_seats, price_per_seat, description, route_info, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	origin, err := json.Marshal(ride.Origin)
	if err != nil {
		return fmt.Errorf("encode origin: %w", err)
	}
	destination, err := json.Marshal(ride.Destination)
	if err != nil {
		return fmt.Errorf("encode destination: %w", err)
	}

	var routeInfo sql.NullString
	if ride.RouteInfo != nil {
		b, err := json.Marshal(ride.RouteInfo)
		if err != nil {
			return fmt.Errorf("encode route info: %w", err)
		}
		routeInfo = sql.NullString{String: string(b), Valid: true}
	}

	_, err = r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		ride.RiderName,
		string(origin),
		string(destination),
		ride.DepartureTime,
		ride.AvailableSeats,
		ride.PricePerSeat,
		ride.Description,
		routeInfo,
		ride.Status,
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// Search returns active rides with free seats, optionally restricted to one UTC day.
func (r *RideRepository) Search(ctx context.Context, filter domain.RideFilter) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE status = $1 AND available_seats > 0`
	args := []any{domain.RideStatusActive}

	if filter.Date != nil {
		start, end := domain.DayWindow(*filter.Date)
		query += ` AND departure_time >= $2 AND departure_time < $3`
		args = append(args, start, end)
	}
	query += fmt.Sprintf(` ORDER BY departure_time ASC, id ASC LIMIT %d`, listLimit)

	return r.list(ctx, query, args...)
}

// ListByRider returns every ride published by riderID.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE rider_id = $1` +
		fmt.Sprintf(` ORDER BY departure_time ASC, id ASC LIMIT %d`, listLimit)

	return r.list(ctx, query, riderID)
}

// DecrementSeats removes count seats only if at least count remain.
func (r *RideRepository) DecrementSeats(ctx context.Context, id string, count int) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET available_seats = available_seats - $1, updated_at = $2
		WHERE id = $3 AND available_seats >= $1
		RETURNING ` + rideColumns

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, count, time.Now().UTC(), id))
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// No row updated: tell a missing ride apart from a lost seat race.
	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrNotFound
	}
	return nil, repository.ErrConflict
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := make([]*domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var origin, destination []byte
	var routeInfo []byte

	if err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&ride.RiderName,
		&origin,
		&destination,
		&ride.DepartureTime,
		&ride.AvailableSeats,
		&ride.PricePerSeat,
		&ride.Description,
		&routeInfo,
		&ride.Status,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(origin, &ride.Origin); err != nil {
		return nil, fmt.Errorf("decode origin: %w", err)
	}
	if err := json.Unmarshal(destination, &ride.Destination); err != nil {
		return nil, fmt.Errorf("decode destination: %w", err)
	}
	if len(routeInfo) > 0 {
		ride.RouteInfo = &domain.RouteInfo{}
		if err := json.Unmarshal(routeInfo, ride.RouteInfo); err != nil {
			return nil, fmt.Errorf("decode route info: %w", err)
		}
	}

	return &ride, nil
}
