package notify

import (
	"context"

	"github.com/UniNest-Housing/service-payment/internal/kafka"
)

// KafkaEmitter publishes notifications as CloudEvents on the notification topic.
type KafkaEmitter struct {
	producer *kafka.Producer
	source   string
}

// NewKafkaEmitter creates an emitter backed by the given producer.
func NewKafkaEmitter(producer *kafka.Producer, source string) *KafkaEmitter {
	return &KafkaEmitter{producer: producer, source: source}
}

// Publish implements Emitter.
func (e *KafkaEmitter) Publish(ctx context.Context, n Notification) error {
	event, err := kafka.NewCloudEvent(e.source, n.Type, n)
	if err != nil {
		return err
	}
	return e.producer.PublishEvent(ctx, TopicNotificationEvents, event)
}
