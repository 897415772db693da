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

// RideService handles the ride catalog.
type RideService struct {
	rideRepo repository.RideRepository
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewRideService creates a new RideService.
func NewRideService(rideRepo repository.RideRepository, logger logrus.FieldLogger) *RideService {
	return &RideService{
		rideRepo: rideRepo,
		logger:   logger.WithField("service", "ride"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PublishRideRequest contains the parameters for publishing a ride.
type PublishRideRequest struct {
	Origin         domain.Location
	Destination    domain.Location
	DepartureTime  time.Time
	AvailableSeats int
	PricePerSeat   float64
	Description    string
	RouteInfo      *domain.RouteInfo // Optional
}

// Publish creates an active ride owned by owner, who must be a rider.
func (s *RideService) Publish(ctx context.Context, owner *domain.User, req PublishRideRequest) (*domain.Ride, error) {
	if !owner.IsRider {
		return nil, ErrForbidden
	}
	if err := validatePublishRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	ride := &domain.Ride{
		ID:             uuid.New().String(),
		RiderID:        owner.ID,
		RiderName:      owner.Name,
		Origin:         req.Origin,
		Destination:    req.Destination,
		DepartureTime:  req.DepartureTime.UTC(),
		AvailableSeats: req.AvailableSeats,
		PricePerSeat:   req.PricePerSeat,
		Description:    req.Description,
		RouteInfo:      req.RouteInfo,
		Status:         domain.RideStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"ride_id":  ride.ID,
		"rider_id": owner.ID,
		"seats":    ride.AvailableSeats,
	}).Info("ride published")
	return ride, nil
}

func validatePublishRequest(req PublishRideRequest) error {
	for label, loc := range map[string]domain.Location{"origin": req.Origin, "destination": req.Destination} {
		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("%w: %s name is required", ErrInvalidInput, label)
		}
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			return fmt.Errorf("%w: %s coordinates out of range", ErrInvalidInput, label)
		}
	}
	if req.DepartureTime.IsZero() {
		return fmt.Errorf("%w: departure_time is required", ErrInvalidInput)
	}
	if req.AvailableSeats < 0 {
		return fmt.Errorf("%w: available_seats must not be negative", ErrInvalidInput)
	}
	if req.PricePerSeat < 0 {
		return fmt.Errorf("%w: price_per_seat must not be negative", ErrInvalidInput)
	}
	return nil
}

// Search lists bookable rides. date may be empty, a YYYY-MM-DD day or an
// RFC 3339 timestamp; anything else is ignored and the search is unfiltered.
func (s *RideService) Search(ctx context.Context, date string) ([]*domain.Ride, error) {
	var filter domain.RideFilter
	if date != "" {
		if day, ok := ParseSearchDate(date); ok {
			filter.Date = &day
		} else {
			s.logger.WithField("date", date).Debug("ignoring unparsable search date")
		}
	}
	return s.rideRepo.Search(ctx, filter)
}

// searchDateLayouts are tried in order; zoneless values are read as UTC.
var searchDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
}

// ParseSearchDate accepts YYYY-MM-DD, RFC 3339 or an ISO timestamp without
// a zone.
func ParseSearchDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range searchDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ListOwned lists every ride published by ownerID, whatever its status.
func (s *RideService) ListOwned(ctx context.Context, ownerID string) ([]*domain.Ride, error) {
	return s.rideRepo.ListByRider(ctx, ownerID)
}

// DecrementSeats takes count seats off a ride. It fails instead of going
// below zero.
func (s *RideService) DecrementSeats(ctx context.Context, rideID string, count int) (*domain.Ride, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: seat count must be positive", ErrInvalidInput)
	}

	ride, err := s.rideRepo.DecrementSeats(ctx, rideID, count)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrRideNotFound
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrInsufficientSeats
	case err != nil:
		return nil, fmt.Errorf("decrement seats: %w", err)
	}
	return ride, nil
}
