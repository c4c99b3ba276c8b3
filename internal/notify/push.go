package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PushMessage push gateway request body
type PushMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Sound string                 `json:"sound,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// PushTicket push gateway response
type PushTicket struct {
	Status  string `json:"status"` // ok | error
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// PushResponse wraps the ticket
type PushResponse struct {
	Data PushTicket `json:"data"`
}

// PushClient HTTP push gateway notifier
type PushClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewPushClient creates the push client; accessToken is optional
func NewPushClient(baseURL, accessToken string, timeout time.Duration, retryCount int, logger *zap.Logger) *PushClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if accessToken != "" {
		client.SetAuthToken(accessToken)
	}

	return &PushClient{
		httpClient: client,
		logger:     logger,
	}
}

// Notify posts one push message addressed to the recipient profile
func (c *PushClient) Notify(ctx context.Context, recipientProfileID string, n models.Notification) error {
	data := map[string]interface{}{
		"notification_id": n.ID,
		"type":            n.Type,
		"from_profile_id": n.FromProfileID,
	}
	for k, v := range n.Data {
		data[k] = v
	}

	var response PushResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(PushMessage{
			To:    recipientProfileID,
			Title: n.Title,
			Body:  n.Body,
			Sound: "default",
			Data:  data,
		}).
		SetResult(&response).
		Post("/push/send")
	if err != nil {
		return fmt.Errorf("failed to call push gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("push gateway returned HTTP %d", resp.StatusCode())
	}
	if response.Data.Status != "ok" {
		return fmt.Errorf("push gateway error: %s", response.Data.Message)
	}

	c.logger.Debug("Push notification sent",
		zap.String("recipient_profile_id", recipientProfileID),
		zap.String("ticket_id", response.Data.ID),
	)
	return nil
}
