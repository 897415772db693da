package repository

import (
	"context"

	"rideshare/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// Search returns active rides with free seats, ordered by departure time.
	Search(ctx context.Context, filter domain.RideFilter) ([]*domain.Ride, error)

	// ListByRider returns every ride published by riderID, in any status.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error)

	// DecrementSeats removes count seats from a ride only if that many remain.
	// Returns ErrConflict when fewer seats are left, ErrNotFound if the ride is gone.
	DecrementSeats(ctx context.Context, id string, count int) (*domain.Ride, error)
}
