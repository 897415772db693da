package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rideshare/internal/chat"
	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// historyLimit is the number of most recent messages History returns.
const historyLimit = 100

// Column widths of the messages table.
const (
	maxIDLength         = 36
	maxSenderNameLength = 255
)

// MessagePublisher delivers a stored message to live subscribers.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *domain.Message) error
}

// Ensure the local hub can act as the publisher.
var _ MessagePublisher = (*chat.Hub)(nil)

// ChatService persists ride chat messages and relays them to subscribers.
type ChatService struct {
	messageRepo repository.MessageRepository
	hub         *chat.Hub
	publisher   MessagePublisher
	logger      logrus.FieldLogger
	now         func() time.Time
}

// NewChatService creates a new ChatService. publisher is either the hub
// itself or a cross-instance bus that feeds the hub.
func NewChatService(
	messageRepo repository.MessageRepository,
	hub *chat.Hub,
	publisher MessagePublisher,
	logger logrus.FieldLogger,
) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		hub:         hub,
		publisher:   publisher,
		logger:      logger.WithField("service", "chat"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PostMessageRequest contains the parameters for posting to a ride chat.
type PostMessageRequest struct {
	RideID     string
	SenderID   string
	SenderName string
	Text       string
}

// Post stores a message and hands it to the publisher. Delivery is best
// effort: a publish failure is logged, the stored message stands.
func (s *ChatService) Post(ctx context.Context, req PostMessageRequest) (*domain.Message, error) {
	if strings.TrimSpace(req.RideID) == "" ||
		strings.TrimSpace(req.SenderID) == "" ||
		strings.TrimSpace(req.SenderName) == "" ||
		strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: ride_id, sender and message are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.RideID) > maxIDLength || utf8.RuneCountInString(req.SenderID) > maxIDLength {
		return nil, fmt.Errorf("%w: ride_id and sender_id must be at most %d characters", ErrInvalidInput, maxIDLength)
	}
	if utf8.RuneCountInString(req.SenderName) > maxSenderNameLength {
		return nil, fmt.Errorf("%w: sender_name must be at most %d characters", ErrInvalidInput, maxSenderNameLength)
	}

	msg := &domain.Message{
		ID:         uuid.New().String(),
		RideID:     req.RideID,
		SenderID:   req.SenderID,
		SenderName: req.SenderName,
		Message:    req.Text,
		Timestamp:  s.now(),
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"ride_id":    msg.RideID,
			"message_id": msg.ID,
		}).Warn("chat message stored but not delivered")
	}
	return msg, nil
}

// History returns the latest messages of a ride, oldest first.
func (s *ChatService) History(ctx context.Context, rideID string) ([]*domain.Message, error) {
	if strings.TrimSpace(rideID) == "" {
		return nil, fmt.Errorf("%w: ride_id is required", ErrInvalidInput)
	}
	return s.messageRepo.ListByRide(ctx, rideID, historyLimit)
}

// Subscribe puts a connection in the ride's room.
func (s *ChatService) Subscribe(rideID string, client *chat.Client) error {
	if strings.TrimSpace(rideID) == "" {
		return fmt.Errorf("%w: ride_id is required", ErrInvalidInput)
	}
	s.hub.Subscribe(rideID, client)
	s.logger.WithFields(logrus.Fields{"ride_id": rideID, "client_id": client.ID}).Debug("joined ride chat")
	return nil
}

// Leave takes a connection out of a single ride's room.
func (s *ChatService) Leave(rideID string, client *chat.Client) {
	s.hub.Leave(rideID, client)
}

// Unsubscribe takes a connection out of every room.
func (s *ChatService) Unsubscribe(client *chat.Client) {
	s.hub.Unsubscribe(client)
}
