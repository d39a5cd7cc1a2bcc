// Package upstream is the typed client for the hosted reservation
// platform API. All business data lives behind it; the gateway forwards
// the caller's bearer token on every request and owns no credentials of
// its own.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client talks to the reservation platform REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API at baseURL. A zero timeout uses the
// default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured API base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// APIError is a non-2xx response from the platform API. StatusCode and
// Message carry the upstream status and, where the body was parseable,
// its message field.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream: status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream: status %d: %s", e.StatusCode, e.Message)
}

type tokenKey struct{}

// ContextWithToken stores the caller's bearer token for outgoing
// requests.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token stored by ContextWithToken,
// if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes req and decodes a 2xx JSON body into dst (which may be nil
// for responses whose body the caller does not need). Non-2xx responses
// become *APIError.
func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, dst)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, dst any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dst)
}

// UploadImage sends one image to the platform's image endpoint and
// returns the hosted URL.
func (c *Client) UploadImage(ctx context.Context, filename string, data io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return "", fmt.Errorf("read image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/activities/image", nil, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result struct {
		ActivityImageURL string `json:"activityImageUrl"`
	}
	if err := c.do(req, &result); err != nil {
		return "", fmt.Errorf("upload image %s: %w", filename, err)
	}
	return result.ActivityImageURL, nil
}
