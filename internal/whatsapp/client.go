package whatsapp

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

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultBaseURL is the Graph API root messages are posted under.
const DefaultBaseURL = "https://graph.facebook.com/v18.0"

const responseBodyLimit = 64 << 10

// Response is a successful Cloud API reply.
type Response struct {
	StatusCode int
	Body       string
	Header     http.Header
}

// APIError describes a failed send. StatusCode is zero when no response arrived.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	Header     http.Header
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("whatsapp request failed: %v", e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("whatsapp request failed: %s (%s)", e.Status, e.Body)
	}
	return fmt.Sprintf("whatsapp request failed: %s", e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Client posts messages to the WhatsApp Cloud API.
type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	client        *retryablehttp.Client
}

// Option customizes Client behavior.
type Option func(*Client)

// WithTimeout bounds each request. Zero leaves the HTTP client default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.HTTPClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client.HTTPClient = httpClient
		}
	}
}

// NewClient creates a client for the given sender phone number id.
func NewClient(baseURL, accessToken, phoneNumberID string, opts ...Option) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil
	client.HTTPClient = &http.Client{}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		client:        client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the messages URL for the configured sender.
func (c *Client) Endpoint() string {
	return c.baseURL + "/" + url.PathEscape(c.phoneNumberID) + "/messages"
}

// Send posts msg once. Non-2xx replies are returned as *APIError.
func (c *Client) Send(ctx context.Context, msg TemplateMessage) (*Response, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, &APIError{Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	bodyText := strings.TrimSpace(string(body))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{
			StatusCode: resp.StatusCode,
			Body:       bodyText,
			Header:     resp.Header.Clone(),
		}, nil
	}
	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       bodyText,
		Header:     resp.Header.Clone(),
	}
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
