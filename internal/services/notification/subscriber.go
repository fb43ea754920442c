package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"ordernow/internal/logger"
	"ordernow/internal/messaging"
	"ordernow/internal/models"
)

// Subscriber consumes order status change events from the notifications
// fanout exchange and logs them. Actual delivery channels (mail, push)
// would hang off this point.
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

// Start consumes messages until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("service_started", "Notification subscriber started", "", nil)

	err := s.consumer.StartConsuming(ctx, s.handleStatusChange)
	if err == context.Canceled {
		return nil
	}
	return err
}

// handleStatusChange processes a single status change event
func (s *Subscriber) handleStatusChange(ctx context.Context, body []byte) error {
	var event models.OrderStatusChangedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse status change event: %w", err)
	}

	s.logger.Info("status_notification",
		fmt.Sprintf("Order %d changed from %s to %s", event.OrderID, event.OldStatus, event.NewStatus),
		event.EventID, map[string]interface{}{
			"order_id":    event.OrderID,
			"customer_id": event.CustomerID,
			"old_status":  string(event.OldStatus),
			"new_status":  string(event.NewStatus),
			"changed_by":  event.ChangedBy,
		})

	return nil
}
