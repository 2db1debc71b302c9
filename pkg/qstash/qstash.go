package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	URL         string        `split_words:"true" default:"https://qstash.upstash.io"`
	Token       string        `split_words:"true" required:"true"`
	Destination string        `split_words:"true" required:"true"`
	Retries     int           `split_words:"true" default:"3"`
	Timeout     time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	token      string
	retries    int
	httpClient *http.Client
}

type PublishResponse struct {
	MessageID    string `json:"messageId"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("qstash url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		retries: cfg.Retries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Publish enqueues body for delivery to destination, a URL or topic name.
// QStash owns retries after it has accepted the message.
func (c *Client) Publish(ctx context.Context, destination string, body []byte, headers map[string]string) (PublishResponse, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return PublishResponse{}, errors.New("qstash destination is required")
	}

	endpoint := c.baseURL + "/v2/publish/" + destination
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return PublishResponse{}, fmt.Errorf("qstash: build publish request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if c.retries >= 0 {
		req.Header.Set("Upstash-Retries", fmt.Sprintf("%d", c.retries))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PublishResponse{}, fmt.Errorf("qstash: publish: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PublishResponse{}, fmt.Errorf("qstash: read publish response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PublishResponse{}, fmt.Errorf("qstash: publish status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out PublishResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return PublishResponse{}, fmt.Errorf("qstash: decode publish response: %w", err)
	}
	return out, nil
}
