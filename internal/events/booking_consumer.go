package events

import (
	"context"

	"github.com/UniNest-Housing/service-payment/internal/application"
	"github.com/UniNest-Housing/service-payment/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	// TopicBookingEvents carries booking lifecycle events from the marketplace service.
	TopicBookingEvents = "booking.events"

	// EventBookingCancelled signals that a student or agent cancelled a booking.
	EventBookingCancelled = "booking.cancelled"
)

// BookingEventConsumer consumes booking lifecycle events and triggers
// the corresponding payment reconciliation.
type BookingEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.PaymentService
	logger   *zap.Logger
}

// NewBookingEventConsumer creates a consumer on the booking events topic.
func NewBookingEventConsumer(brokers []string, groupID string, service *application.PaymentService, logger *zap.Logger) *BookingEventConsumer {
	return &BookingEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, TopicBookingEvents, logger),
		service:  service,
		logger:   logger,
	}
}

// Start consumes until ctx is cancelled. Malformed or unrecognized events are
// logged and skipped so the partition keeps moving.
func (c *BookingEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, func(ctx context.Context, msg kafkago.Message) error {
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			c.logger.Warn("skipping malformed booking event",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			return nil
		}

		switch ce.Type {
		case EventBookingCancelled:
			var event application.BookingCancelledEvent
			if err := ce.ParseData(&event); err != nil {
				c.logger.Warn("skipping booking cancelled event with bad payload",
					zap.String("event_id", ce.ID),
					zap.Error(err),
				)
				return nil
			}
			return c.service.HandleBookingCancelled(ctx, event)
		default:
			c.logger.Debug("ignoring booking event",
				zap.String("type", ce.Type),
				zap.String("event_id", ce.ID),
			)
			return nil
		}
	})
}

// Close releases the underlying Kafka reader.
func (c *BookingEventConsumer) Close() error {
	return c.consumer.Close()
}
