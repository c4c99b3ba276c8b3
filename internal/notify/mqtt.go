package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"go.uber.org/zap"
)

// Publisher implemented by common/mqtt.Client
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher publishes notifications to <topicPrefix>/<profileID>
type MQTTPublisher struct {
	client      Publisher
	topicPrefix string
	qos         byte
	logger      *zap.Logger
}

// NewMQTTPublisher creates the MQTT notifier
func NewMQTTPublisher(client Publisher, topicPrefix string, qos byte, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client:      client,
		topicPrefix: topicPrefix,
		qos:         qos,
		logger:      logger,
	}
}

// Topic per-member topic
func (p *MQTTPublisher) Topic(profileID string) string {
	return fmt.Sprintf("%s/%s", p.topicPrefix, profileID)
}

// Notify publishes the JSON payload
func (p *MQTTPublisher) Notify(ctx context.Context, recipientProfileID string, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := p.client.Publish(p.Topic(recipientProfileID), p.qos, false, payload); err != nil {
		return err
	}
	p.logger.Debug("Notification published",
		zap.String("topic", p.Topic(recipientProfileID)),
		zap.String("notification_type", n.Type),
	)
	return nil
}
