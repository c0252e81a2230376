package telegram

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
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

const maxResponseBytes = 10 << 20 // 10 MiB

// maxFileBytes bounds downloads; the Bot API serves files up to 20 MB.
const maxFileBytes = 20 << 20

// Client is a thin HTTP wrapper around the Telegram Bot API.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Bot API client. A nil httpClient uses http.DefaultClient.
func NewClient(token, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Request calls a Bot API method and returns the raw "result" field.
// body is JSON-encoded when non-nil; query is appended to the URL.
func (c *Client) Request(ctx context.Context, httpMethod, endpoint string, body any, query url.Values) (json.RawMessage, error) {
	result, err := do[json.RawMessage](ctx, c, httpMethod, endpoint, body, query)
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// do sends a request to the given Bot API method and decodes the response.
// Failures are returned as *APIError; nothing is retried.
func do[T any](ctx context.Context, c *Client, httpMethod, endpoint string, payload any, query url.Values) (*T, error) {
	reqURL := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, endpoint)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("telegram: marshal %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("telegram: create %s request: %s", endpoint, stripURL(err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s request failed: %w", endpoint, stripURL(err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", endpoint, err)
	}

	var apiResp APIResponse[T]
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{StatusCode: resp.StatusCode, Code: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("telegram: decode %s response: %w", endpoint, err)
	}

	if !apiResp.OK {
		apiErr := &APIError{
			StatusCode:  resp.StatusCode,
			Code:        apiResp.ErrorCode,
			Description: apiResp.Description,
		}
		if apiResp.Parameters != nil {
			apiErr.RetryAfter = apiResp.Parameters.RetryAfter
		}
		return nil, apiErr
	}

	return &apiResp.Result, nil
}

// Download fetches the raw bytes of a file path returned by GetFile.
func (c *Client) Download(ctx context.Context, filePath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FileURL(filePath), nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: create download request: %s", stripURL(err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: download %s failed: %w", filePath, stripURL(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &APIError{
			StatusCode:  resp.StatusCode,
			Code:        resp.StatusCode,
			Description: "download " + filePath + ": " + http.StatusText(resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s: %w", filePath, err)
	}
	if len(data) > maxFileBytes {
		return nil, fmt.Errorf("telegram: file %s exceeds %d bytes", filePath, maxFileBytes)
	}
	return data, nil
}

// FileURL returns the download URL for a file path returned by GetFile.
func (c *Client) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
}

// stripURL drops the *url.Error wrapper, whose message embeds the
// token-bearing request URL.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// SetWebhookRequest is the request body for the setWebhook method.
// AllowedUpdates is always sent: an empty list subscribes to every kind,
// while omitting it would keep Telegram's previous filter.
type SetWebhookRequest struct {
	URL            string   `json:"url"`
	AllowedUpdates []string `json:"allowed_updates"`
	SecretToken    string   `json:"secret_token,omitempty"`
}

// GetMe returns the bot's user information.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return do[User](ctx, c, http.MethodGet, "getMe", nil, nil)
}

// GetWebhookInfo returns the currently registered webhook.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	return do[WebhookInfo](ctx, c, http.MethodPost, "getWebhookInfo", struct{}{}, nil)
}

// SetWebhook registers url as the bot's webhook.
func (c *Client) SetWebhook(ctx context.Context, req SetWebhookRequest) error {
	if req.AllowedUpdates == nil {
		req.AllowedUpdates = []string{}
	}
	_, err := do[bool](ctx, c, http.MethodPost, "setWebhook", req, nil)
	return err
}

// DeleteWebhook removes the current webhook integration.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := do[bool](ctx, c, http.MethodPost, "deleteWebhook", struct{}{}, nil)
	return err
}

// GetFile resolves a file identifier to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	return do[File](ctx, c, http.MethodGet, "getFile", nil, url.Values{"file_id": {fileID}})
}
