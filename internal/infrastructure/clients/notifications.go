package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

// NotificationsClient posts user-facing messages to the notification service.
// Delivery is fire-and-forget at the call sites; the breaker keeps a dead
// notification service from tying up event handlers.
type NotificationsClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewNotificationsClient(baseURL string) *NotificationsClient {
	return &NotificationsClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "notifications",
			Timeout: 30 * time.Second,
		}),
	}
}

type notifyRequest struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Message string    `json:"message"`
}

func (c *NotificationsClient) Notify(ctx context.Context, ownerID uuid.UUID, message string) error {
	_, err := c.breaker.Execute(func() (any, error) {
		body, err := json.Marshal(notifyRequest{OwnerID: ownerID, Message: message})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error sending notification: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("unexpected status code: %v", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

// LogNotifier is the stand-in used when no notification service is
// configured; it just records what would have been sent.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, ownerID uuid.UUID, message string) error {
	observability.FromContext(ctx).
		WithField("owner_id", ownerID).
		WithField("message", message).
		Info("Notification (no notifier configured)")
	return nil
}
