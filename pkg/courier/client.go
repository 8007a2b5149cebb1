package courier

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

	"github.com/harborbox/dispatch-backend/pkg/config"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errAPIKeyRequired = errors.New("courier api key is required")

// Client wraps the delivery provider's task API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	webhookSecret string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the courier client from configuration.
func NewClient(cfg config.CourierConfig, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("courier base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		apiKey:        apiKey,
		baseURL:       strings.TrimRight(baseURL, "/"),
		webhookSecret: cfg.WebhookSecret,
		httpClient:    &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// SigningSecret returns the shared secret used to verify inbound webhooks.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// TaskParams describes a task create/update payload.
type TaskParams struct {
	Destination    Destination       `json:"destination"`
	CompleteAfter  *time.Time        `json:"completeAfter,omitempty"`
	CompleteBefore *time.Time        `json:"completeBefore,omitempty"`
	Recipient      Recipient         `json:"recipient"`
	Notes          string            `json:"notes,omitempty"`
	Metadata       []MetadataEntry   `json:"metadata,omitempty"`
	WorkerID       *string           `json:"worker,omitempty"`
}

// Destination is the physical target of a task.
type Destination struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Recipient identifies the customer contact on a task.
type Recipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// MetadataEntry matches the provider's name/type/value metadata tuples.
type MetadataEntry struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Value      string `json:"value"`
	Visibility string `json:"visibility,omitempty"`
}

// Task is the provider-side representation returned on create/update.
type Task struct {
	ID      string `json:"id"`
	ShortID string `json:"shortId"`
	State   int    `json:"state"`
}

// CreateTask registers a new task with the delivery provider.
func (c *Client) CreateTask(ctx context.Context, params TaskParams) (*Task, error) {
	return c.send(ctx, http.MethodPost, "tasks", params)
}

// UpdateTask mutates an existing provider task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, params TaskParams) (*Task, error) {
	trimmed := strings.TrimSpace(taskID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier task id is required")
	}
	return c.send(ctx, http.MethodPut, "tasks/"+url.PathEscape(trimmed), params)
}

// CancelTask removes a provider task that is no longer needed.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	trimmed := strings.TrimSpace(taskID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "courier task id is required")
	}
	_, err := c.send(ctx, http.MethodDelete, "tasks/"+url.PathEscape(trimmed), nil)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload any) (*Task, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "courier client not configured")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal courier request")
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build courier request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute courier request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"courier request failed",
		)
	}

	if method == http.MethodDelete {
		return nil, nil
	}

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode courier response")
	}
	return &task, nil
}
