package repository

import (
	"context"

	"rideshare/internal/domain"
)

// MessageRepository defines the persistence operations for chat messages.
type MessageRepository interface {
	// Create appends a message to a ride's log.
	Create(ctx context.Context, msg *domain.Message) error

	// ListByRide returns the latest limit messages of a ride in ascending time order.
	ListByRide(ctx context.Context, rideID string, limit int) ([]*domain.Message, error)
}
