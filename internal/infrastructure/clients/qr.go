package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// QRRendererClient asks the rendering service for a PNG of the ticket code.
// Rendering is a pure function of the code, so responses are safe to cache
// downstream.
type QRRendererClient struct {
	baseURL string
	client  *http.Client
}

func NewQRRendererClient(baseURL string) *QRRendererClient {
	return &QRRendererClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *QRRendererClient) Encode(ctx context.Context, code string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/render?data=%s", c.baseURL, url.QueryEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error rendering qr code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %v", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
