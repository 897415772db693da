package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	db *sql.DB
	q  Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db, q: db}
}

var _ repository.BookingRepository = (*BookingRepository)(nil)

const bookingColumns = `id, ride_id, passenger_id, passenger_name, seats_booked, total_price, status, created_at, updated_at`

// CreateWithReservation decrements the ride's seats and inserts the booking
// in a single transaction.
func (r *BookingRepository) CreateWithReservation(ctx context.Context, booking *domain.Booking) (ride *domain.Ride, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	txRideRepo := NewRideRepositoryWithTx(tx)

	ride, err = txRideRepo.DecrementSeats(ctx, booking.RideID, booking.SeatsBooked)
	if err != nil {
		return nil, err
	}

	if err = insertBooking(ctx, tx, booking); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return ride, nil
}

// ListByPassenger returns the bookings of a passenger, newest first.
func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE passenger_id = $1` +
		fmt.Sprintf(` ORDER BY created_at DESC, id ASC LIMIT %d`, listLimit)

	rows, err := r.q.QueryContext(ctx, query, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID,
			&b.RideID,
			&b.PassengerID,
			&b.PassengerName,
			&b.SeatsBooked,
			&b.TotalPrice,
			&b.Status,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, &b)
	}
	return bookings, rows.Err()
}

func insertBooking(ctx context.Context, q Querier, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		booking.ID,
		booking.RideID,
		booking.PassengerID,
		booking.PassengerName,
		booking.SeatsBooked,
		booking.TotalPrice,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	return err
}
