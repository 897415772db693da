package postgres

import (
	"context"
	"database/sql"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// MessageRepository is a PostgreSQL implementation of repository.MessageRepository.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new PostgreSQL message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

var _ repository.MessageRepository = (*MessageRepository)(nil)

// Create appends a message.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, ride_id, sender_id, sender_name, message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.RideID, msg.SenderID, msg.SenderName, msg.Message, msg.Timestamp)
	return err
}

// ListByRide returns the newest limit messages of a ride, oldest first.
func (r *MessageRepository) ListByRide(ctx context.Context, rideID string, limit int) ([]*domain.Message, error) {
	if limit <= 0 || limit > listLimit {
		limit = listLimit
	}

	query := `
		SELECT id, ride_id, sender_id, sender_name, message, sent_at FROM (
			SELECT id, ride_id, sender_id, sender_name, message, sent_at
			FROM messages WHERE ride_id = $1
			ORDER BY sent_at DESC, id DESC LIMIT $2
		) latest
		ORDER BY sent_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, rideID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RideID, &m.SenderID, &m.SenderName, &m.Message, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
