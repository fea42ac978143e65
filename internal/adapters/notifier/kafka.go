package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes one message per change event. Messages are keyed by
// item id so events about one item stay on one partition.
type KafkaNotifier struct {
	writer messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultChannel
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (n *KafkaNotifier) Publish(ctx context.Context, event domain.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s event: %s", domain.ErrNotify, event.Type, err.Error())
	}
	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: failed to write %s event: %s", domain.ErrNotify, event.Type, err.Error())
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
