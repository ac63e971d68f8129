package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentsGatewayClient asks the external gateway to collect payment for a
// ticket. The gateway answers later through the webhook, not this call.
type PaymentsGatewayClient struct {
	baseURL string
	client  *http.Client
}

func NewPaymentsGatewayClient(baseURL string) *PaymentsGatewayClient {
	return &PaymentsGatewayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type chargeRequest struct {
	Reference string          `json:"reference"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (c *PaymentsGatewayClient) RequestCharge(ctx context.Context, code string, ownerID uuid.UUID, amount decimal.Decimal) error {
	body, err := json.Marshal(chargeRequest{
		Reference: code,
		OwnerID:   ownerID,
		Amount:    amount,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error requesting charge: %w", err)
	}
	defer resp.Body.Close()

	// 409 means the gateway already holds a charge for this reference, which
	// happens when the TicketCreated event is redelivered.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status code: %v", resp.StatusCode)
	}
	return nil
}

// NopChargeRequester is used in development when no gateway is configured;
// payments are then driven entirely through the webhook endpoint.
type NopChargeRequester struct{}

func (NopChargeRequester) RequestCharge(ctx context.Context, code string, ownerID uuid.UUID, amount decimal.Decimal) error {
	return nil
}
