// Package transport talks to the travel-assistant backend over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"map-assistant/internal/config"
	"map-assistant/internal/model"
	"map-assistant/internal/utils"
	"map-assistant/pkg/logger"

	"github.com/samber/oops"
)

const maxResponseBytes = 8 << 20

type Client struct {
	httpClient *http.Client
	chatURL    string
	healthURL  string
}

func NewClient(cfg config.BackendConfig) *Client {
	return NewClientWithHTTP(cfg, utils.NewHTTPClient(cfg.Timeout))
}

func NewClientWithHTTP(cfg config.BackendConfig, httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		chatURL:    cfg.ChatURL(),
		healthURL:  cfg.HealthURL(),
	}
}

// Chat posts message to the chat endpoint and decodes the envelope. Network
// failures, non-2xx statuses and undecodable bodies are all returned as
// errors whose message is fit to show to a user.
func (c *Client) Chat(ctx context.Context, message string) (*model.Envelope, error) {
	errb := oops.In("transport").With("url", c.chatURL)

	body, err := json.Marshal(model.ChatRequest{Message: message})
	if err != nil {
		return nil, errb.Wrapf(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return nil, errb.Wrapf(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debugf("POST %s (%d bytes)", c.chatURL, len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errb.Wrap(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errb.With("status", resp.StatusCode).Wrapf(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errb.With("status", resp.StatusCode).
			Errorf("request failed with status code %d", resp.StatusCode)
	}

	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errb.With("status", resp.StatusCode).Wrapf(err, "malformed response body")
	}

	return &env, nil
}

// Health probes the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	errb := oops.In("transport").With("url", c.healthURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return errb.Wrapf(err, "failed to build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errb.Wrap(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errb.With("status", resp.StatusCode).
			Errorf("health check failed with status code %d", resp.StatusCode)
	}
	return nil
}
