package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HostClient talks to the host e-commerce platform's internal API. The host
// owns order lifecycle; this service only asks it to recompute downstream
// order state after a status change and to authorize admin actions.
type HostClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHostClient(baseURL string, logger *zap.Logger) *HostClient {
	return &HostClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// CheckOrderStatus triggers the host's generic order-state recomputation
// (payment/shipment consistency checks). Must be called after every status
// mutation, synchronously.
func (c *HostClient) CheckOrderStatus(ctx context.Context, orderID int64) error {
	url := fmt.Sprintf("%s/internal/orders/%d/check-status", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order status recompute: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("order status recompute: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Authorize asks the host permission service whether the token holds the
// given permission.
func (c *HostClient) Authorize(ctx context.Context, token, permission string) (bool, error) {
	payload, err := json.Marshal(map[string]string{"permission": permission})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/permissions/authorize", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("authorize: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Granted bool `json:"granted"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false, fmt.Errorf("authorize: %w", err)
		}
		return body.Granted, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("authorize: unexpected status %d", resp.StatusCode)
	}
}
