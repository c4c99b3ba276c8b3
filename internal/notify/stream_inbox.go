package notify

import (
	"context"
	"encoding/json"
	"fmt"

	commonredis "github.com/ankon07/medvault-ai-sub000/common/redis"
	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"go.uber.org/zap"
)

const defaultInboxMaxLen = 500

// StreamInbox durable per-member inbox on Redis Streams (<prefix><profileID>)
type StreamInbox struct {
	client commonredis.StreamClient
	prefix string
	maxLen int64
	logger *zap.Logger
}

// NewStreamInbox creates the inbox notifier
func NewStreamInbox(client commonredis.StreamClient, prefix string, logger *zap.Logger) *StreamInbox {
	return &StreamInbox{
		client: client,
		prefix: prefix,
		maxLen: defaultInboxMaxLen,
		logger: logger,
	}
}

// StreamKey inbox stream for a profile
func (s *StreamInbox) StreamKey(profileID string) string {
	return s.prefix + profileID
}

// Notify appends n to the recipient's inbox stream
func (s *StreamInbox) Notify(ctx context.Context, recipientProfileID string, n models.Notification) error {
	id, err := commonredis.PublishJSONToStream(ctx, s.client, s.StreamKey(recipientProfileID), n, s.maxLen)
	if err != nil {
		return fmt.Errorf("inbox %s: %w", recipientProfileID, err)
	}
	s.logger.Debug("Notification queued in inbox",
		zap.String("recipient_profile_id", recipientProfileID),
		zap.String("stream_id", id),
		zap.String("notification_type", n.Type),
	)
	return nil
}

// Read returns up to count inbox notifications, oldest first
func (s *StreamInbox) Read(ctx context.Context, profileID string, count int64) ([]models.Notification, error) {
	msgs, err := commonredis.ReadStreamRange(ctx, s.client, s.StreamKey(profileID), "-", count)
	if err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", profileID, err)
	}

	out := make([]models.Notification, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var n models.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			s.logger.Warn("Skipping malformed inbox entry",
				zap.String("stream_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
