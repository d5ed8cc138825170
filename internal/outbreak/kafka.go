package outbreak

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthbot/pkg"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAnnouncer publishes newly stored outbreaks to a Kafka topic, keyed by
// title so every report of the same outbreak lands on one partition.
type KafkaAnnouncer struct {
	writer messageWriter
}

// NewKafkaAnnouncer creates an announcer writing to topic on brokers.
func NewKafkaAnnouncer(brokers []string, topic string) *KafkaAnnouncer {
	return &KafkaAnnouncer{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}}
}

// Announce writes one message per outbreak in a single batch.
func (k *KafkaAnnouncer) Announce(ctx context.Context, outbreaks []pkg.DiseaseOutbreak) error {
	msgs := make([]kafka.Message, 0, len(outbreaks))
	now := time.Now().UTC()
	for _, o := range outbreaks {
		value, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal outbreak: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(o.Title),
			Value: value,
			Time:  now,
		})
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish outbreaks: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaAnnouncer) Close() error {
	return k.writer.Close()
}
