package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/model"
)

// ComposerClient is the sole network boundary: it submits validated symphony
// documents to the execution platform and reads deployment state back.
type ComposerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewComposerClient creates a new execution-platform client.
func NewComposerClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *ComposerClient {
	return &ComposerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// DeploySymphony submits a validated document together with its presentation
// metadata and returns the platform-assigned identifier.
//
// The POST is never retried: the platform exposes no partial-success
// semantics, and a timed-out submission may already have been applied.
// Failures carry the platform's raw error text verbatim; it is opaque
// ("not valid under any of the given schemas") and not worth reinterpreting.
func (c *ComposerClient) DeploySymphony(ctx context.Context, doc *model.SymphonyDocument, color, tag string) (string, error) {
	payload := struct {
		Symphony *model.SymphonyDocument `json:"symphony"`
		Color    string                  `json:"color"`
		Tag      string                  `json:"tag"`
	}{
		Symphony: doc,
		Color:    color,
		Tag:      tag,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Failed to marshal symphony payload", zap.Error(err))
		return "", err
	}

	url := fmt.Sprintf("%s/api/v1/symphonies", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send deployment request", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("Platform rejected symphony",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		return "", &model.PlatformRejectionError{
			RemoteMessage: strings.TrimSpace(string(body)),
			PreflightOK:   true,
		}
	}

	var response struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		c.logger.Error("Failed to decode deployment response", zap.Error(err))
		return "", err
	}
	if response.ID == "" {
		return "", fmt.Errorf("platform returned success without a symphony id")
	}

	return response.ID, nil
}

// SymphonyStatus is the platform's view of a deployed symphony.
type SymphonyStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// GetSymphony fetches the state of a deployed symphony. The GET is idempotent,
// so transient failures retry with exponential backoff until the context or
// the backoff budget expires.
func (c *ComposerClient) GetSymphony(ctx context.Context, id string) (*SymphonyStatus, error) {
	url := fmt.Sprintf("%s/api/v1/symphonies/%s", c.baseURL, id)

	var status SymphonyStatus
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("symphony %s not found", id))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("platform returned status code %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&status)
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Error("Failed to fetch symphony status",
			zap.String("symphony_id", id),
			zap.Error(err))
		return nil, err
	}
	return &status, nil
}
