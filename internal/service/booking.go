package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// BookingService reserves seats on rides.
type BookingService struct {
	rideRepo    repository.RideRepository
	bookingRepo repository.BookingRepository
	logger      logrus.FieldLogger
	now         func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	rideRepo repository.RideRepository,
	bookingRepo repository.BookingRepository,
	logger logrus.FieldLogger,
) *BookingService {
	return &BookingService{
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		logger:      logger.WithField("service", "booking"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// BookRequest contains the parameters for booking seats.
type BookRequest struct {
	RideID         string
	SeatsRequested int
}

// Book reserves seats for passenger. The seat decrement and the booking
// insert commit together or not at all, so concurrent bookings can never
// take more seats than the ride has.
func (s *BookingService) Book(ctx context.Context, passenger *domain.User, req BookRequest) (*domain.Booking, error) {
	if strings.TrimSpace(req.RideID) == "" {
		return nil, fmt.Errorf("%w: ride_id is required", ErrInvalidInput)
	}
	if req.SeatsRequested <= 0 {
		return nil, fmt.Errorf("%w: seats_requested must be positive", ErrInvalidInput)
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, fmt.Errorf("get ride: %w", err)
	}

	// Fast rejection; the reservation below re-checks atomically.
	if req.SeatsRequested > ride.AvailableSeats {
		return nil, ErrInsufficientSeats
	}

	now := s.now()
	booking := &domain.Booking{
		ID:            uuid.New().String(),
		RideID:        ride.ID,
		PassengerID:   passenger.ID,
		PassengerName: passenger.Name,
		SeatsBooked:   req.SeatsRequested,
		TotalPrice:    ride.PricePerSeat * float64(req.SeatsRequested),
		Status:        domain.BookingStatusConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	updated, err := s.bookingRepo.CreateWithReservation(ctx, booking)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrInsufficientSeats
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrRideNotFound
	case err != nil:
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":      booking.ID,
		"ride_id":         ride.ID,
		"passenger_id":    passenger.ID,
		"seats":           booking.SeatsBooked,
		"seats_remaining": updated.AvailableSeats,
	}).Info("booking confirmed")
	return booking, nil
}

// ListForPassenger lists the bookings made by passengerID, newest first.
func (s *BookingService) ListForPassenger(ctx context.Context, passengerID string) ([]*domain.Booking, error) {
	return s.bookingRepo.ListByPassenger(ctx, passengerID)
}
