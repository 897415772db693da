package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
)

const (
	chatChannelPrefix  = "chat:ride:"
	chatChannelPattern = chatChannelPrefix + "*"
)

// ChatBus fans chat messages out to every server instance over Redis pub/sub.
type ChatBus struct {
	client    *redis.Client
	logger    logrus.FieldLogger
	ready     chan struct{}
	readyOnce sync.Once
}

// NewChatBus creates a new ChatBus.
func NewChatBus(client *redis.Client, logger logrus.FieldLogger) *ChatBus {
	return &ChatBus{
		client: client,
		logger: logger.WithField("component", "chat_bus"),
		ready:  make(chan struct{}),
	}
}

// Publish sends msg on its ride's channel.
func (b *ChatBus) Publish(ctx context.Context, msg *domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, chatChannelPrefix+msg.RideID, data).Err()
}

// Ready is closed once Run's subscription is confirmed by Redis.
func (b *ChatBus) Ready() <-chan struct{} {
	return b.ready
}

// Run hands every message published on any ride channel to deliver, until ctx
// is done.
func (b *ChatBus) Run(ctx context.Context, deliver func(*domain.Message)) error {
	sub := b.client.PSubscribe(ctx, chatChannelPattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", chatChannelPattern, err)
	}
	b.readyOnce.Do(func() { close(b.ready) })
	b.logger.Info("chat bus subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg domain.Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.logger.WithError(err).WithField("channel", m.Channel).Warn("dropping malformed chat payload")
				continue
			}
			if msg.RideID == "" {
				msg.RideID = strings.TrimPrefix(m.Channel, chatChannelPrefix)
			}
			deliver(&msg)
		}
	}
}
