package repository

import (
	"context"

	"rideshare/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// CreateWithReservation reserves booking.SeatsBooked seats on the ride and
	// stores the booking as one atomic step. Nothing is written on failure.
	// Returns ErrConflict when the seats are no longer available.
	CreateWithReservation(ctx context.Context, booking *domain.Booking) (*domain.Ride, error)

	// ListByPassenger returns the bookings of a passenger, newest first.
	ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Booking, error)
}
