// Package kafka delivers notifications to a Kafka topic for downstream push
// gateways. Messages are keyed by user id so one user's reminders stay ordered
// on a single partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Payload is the JSON value of each published message.
type Payload struct {
	UserID  string    `json:"user_id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Sender publishes one message per notification.
type Sender struct {
	writer messageWriter
	clock  func() time.Time
}

// NewSender builds a Sender writing to topic on brokers. Writes are
// synchronous and wait for all in-sync replicas.
func NewSender(brokers []string, topic string) (*Sender, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
		BatchTimeout:           10 * time.Millisecond,
	}
	return newSender(w), nil
}

func newSender(w messageWriter) *Sender {
	return &Sender{writer: w, clock: time.Now}
}

func (s *Sender) Send(ctx context.Context, userID, message string) error {
	value, err := json.Marshal(Payload{UserID: userID, Message: message, SentAt: s.clock().UTC()})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte("event_reminder")},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *Sender) Close() error {
	return s.writer.Close()
}
