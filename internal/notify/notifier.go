package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers a payload to one member's inbox. Delivery is fire-and-forget for callers.
type Notifier interface {
	Notify(ctx context.Context, recipientProfileID string, n models.Notification) error
}

// NewNotification stamps id and creation time
func NewNotification(notificationType, fromProfileID, title, body string, data map[string]interface{}) models.Notification {
	return models.Notification{
		ID:            uuid.New().String(),
		Type:          notificationType,
		FromProfileID: fromProfileID,
		Title:         title,
		Body:          body,
		Data:          data,
		CreatedAt:     time.Now().UTC(),
	}
}

// Fanout delivers through every configured channel (inbox stream, MQTT, push gateway)
type Fanout struct {
	channels []Notifier
	logger   *zap.Logger
}

// NewFanout nil channels are skipped
func NewFanout(logger *zap.Logger, channels ...Notifier) *Fanout {
	active := make([]Notifier, 0, len(channels))
	for _, c := range channels {
		if c != nil {
			active = append(active, c)
		}
	}
	return &Fanout{channels: active, logger: logger}
}

// Notify tries every channel; the result joins the per-channel failures
func (f *Fanout) Notify(ctx context.Context, recipientProfileID string, n models.Notification) error {
	var errs []error
	for _, c := range f.channels {
		if err := c.Notify(ctx, recipientProfileID, n); err != nil {
			f.logger.Warn("Notification channel failed",
				zap.String("recipient_profile_id", recipientProfileID),
				zap.String("notification_type", n.Type),
				zap.String("channel", fmt.Sprintf("%T", c)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Broadcast sends n to every recipient and returns how many deliveries succeeded.
// Failures are logged, never returned.
func Broadcast(ctx context.Context, notifier Notifier, recipients []string, n models.Notification, logger *zap.Logger) int {
	delivered := 0
	for _, recipient := range recipients {
		if err := notifier.Notify(ctx, recipient, n); err != nil {
			logger.Warn("Failed to notify family member",
				zap.String("recipient_profile_id", recipient),
				zap.String("notification_type", n.Type),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}
