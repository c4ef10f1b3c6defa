package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatline/pkg/logger"

	"github.com/IBM/sarama"
)

// Handler processes one lifecycle message. Returning an error triggers a retry.
type Handler func(ctx context.Context, event *ReservationEvent) error

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeout       time.Duration
	Heartbeat            time.Duration
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
	// Types limits the handled messages; empty means every type
	Types []EventType
}

func DefaultConsumerConfig(brokers []string, groupID, topic string) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              brokers,
		GroupID:              groupID,
		Topics:               []string{topic},
		SessionTimeout:       30 * time.Second,
		Heartbeat:            3 * time.Second,
		MaxProcessingTime:    5 * time.Minute,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

// KafkaConsumer runs a consumer group and hands messages to a Handler
type KafkaConsumer struct {
	group   sarama.ConsumerGroup
	config  *ConsumerConfig
	handler Handler
	logger  *logger.Logger
}

func NewKafkaConsumer(config *ConsumerConfig, handler Handler) (*KafkaConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaConsumer{
		group:   group,
		config:  config,
		handler: handler,
		logger:  logger.GetDefault(),
	}, nil
}

// Run consumes until ctx is cancelled
func (c *KafkaConsumer) Run(ctx context.Context) error {
	handler := &groupHandler{consumer: c}
	for {
		if err := c.group.Consume(ctx, c.config.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.WithError(err).ErrorContext(ctx, "consumer group session failed")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Errors drains the group's error channel into the log until it closes
func (c *KafkaConsumer) Errors(ctx context.Context) error {
	for err := range c.group.Errors() {
		c.logger.WithError(err).WarnContext(ctx, "consumer group error")
	}
	return nil
}

func (c *KafkaConsumer) Close() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

func (c *KafkaConsumer) wants(t EventType) bool {
	if len(c.config.Types) == 0 {
		return true
	}
	for _, want := range c.config.Types {
		if want == t {
			return true
		}
	}
	return false
}

// Process decodes a message body and runs the handler with retries. Bodies
// that cannot be decoded are logged and skipped.
func (c *KafkaConsumer) Process(ctx context.Context, body []byte) error {
	event, err := DecodeReservationEvent(body)
	if err != nil {
		c.logger.WithError(err).WarnContext(ctx, "skipping undecodable message")
		return nil
	}
	if !c.wants(event.Type) {
		return nil
	}
	return c.executeWithRetry(ctx, event)
}

func (c *KafkaConsumer) executeWithRetry(ctx context.Context, event *ReservationEvent) error {
	backoff := c.config.RetryBackoffDuration
	var err error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err = c.handler(ctx, event); err == nil {
			return nil
		}
		if attempt == c.config.MaxRetries {
			break
		}

		delay := backoff * time.Duration(1<<attempt)
		c.logger.WithError(err).WarnContext(ctx, "retrying reservation event",
			"reservation_id", event.ReservationID.String(),
			"attempt", attempt+1,
			"delay", delay.String(),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("reservation event %s failed after %d attempts: %w", event.ID, c.config.MaxRetries+1, err)
}

type groupHandler struct {
	consumer *KafkaConsumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.consumer.Process(session.Context(), message.Value); err != nil {
				// the offset is still marked; a poisoned message must not stall the partition
				h.consumer.logger.WithError(err).ErrorContext(session.Context(), "reservation event dropped",
					"topic", message.Topic, "partition", message.Partition, "offset", message.Offset)
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
