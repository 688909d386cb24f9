// Package notification consumes placed-order events from the fanout
// exchange and renders console notifications. Status advancement
// beyond "in progress" happens in external systems that feed the same
// exchange.
package notification

import (
	"context"
	"fmt"

	"bytebowl/internal/logger"
	"bytebowl/internal/messaging"
	"bytebowl/internal/models"
)

// Subscriber handles placed-order notification messages
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
}

// NewSubscriber creates a new notification subscriber
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
	}
}

// Start consumes notifications until the context is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.handleNotification)
	if err != nil && ctx.Err() == nil {
		s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		return err
	}
	return nil
}

// handleNotification processes one placed-order event
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var placed models.OrderPlacedMessage
	if err := messaging.ParseMessage(body, &placed); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	s.logger.Debug("notification_received", "Received placed-order notification", requestID, map[string]interface{}{
		"order_id":   placed.OrderID,
		"session_id": placed.SessionID,
		"total":      placed.Total.String(),
	})

	s.displayNotification(&placed)

	return nil
}

// displayNotification renders a human-readable notification to console
func (s *Subscriber) displayNotification(placed *models.OrderPlacedMessage) {
	timestamp := placed.PlacedAt.Format("2006-01-02 15:04:05")

	fmt.Printf("[%s] Order #%d placed (%d items, total %s), status: %s\n",
		timestamp,
		placed.OrderID,
		len(placed.Items),
		placed.Total.StringFixed(2),
		placed.Status,
	)

	s.logger.Info("notification_displayed", "Notification displayed to user", "", map[string]interface{}{
		"order_id": placed.OrderID,
		"status":   string(placed.Status),
		"total":    placed.Total.String(),
	})
}

// Close stops the underlying consumer
func (s *Subscriber) Close() error {
	if s.consumer != nil {
		return s.consumer.Close()
	}
	return nil
}
