// Package api is the HTTP client for the speakflow analysis service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const apiPrefix = "/api/v1"

// TokenStore supplies and persists the bearer token attached to requests.
// It is injected at construction so no module-level credential state exists.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// Client talks to the speakflow REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	logger  *slog.Logger
}

// New constructs a client for the given base URL (scheme + host, no
// trailing slash required).
func New(baseURL string, timeout time.Duration, tokens TokenStore, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// CreateSession uploads recorded audio and returns the accepted session.
// The server assigns the session identifier; processing is asynchronous.
func (c *Client) CreateSession(ctx context.Context, audio []byte, contentType string) (CreateSessionResponse, error) {
	if len(audio) == 0 {
		return CreateSessionResponse{}, fmt.Errorf("refusing to upload empty audio")
	}
	if contentType == "" {
		contentType = "audio/wav"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="audio"; filename="recording.wav"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return CreateSessionResponse{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return CreateSessionResponse{}, fmt.Errorf("write audio part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return CreateSessionResponse{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, apiPrefix+"/sessions/", &body)
	if err != nil {
		return CreateSessionResponse{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp CreateSessionResponse
	if err := c.do(req, http.StatusCreated, &resp); err != nil {
		return CreateSessionResponse{}, err
	}
	if strings.TrimSpace(resp.SessionID) == "" {
		return CreateSessionResponse{}, fmt.Errorf("upload accepted but no session id returned")
	}
	return resp, nil
}

// GetStatus fetches the current processing status for one session.
func (c *Client) GetStatus(ctx context.Context, sessionID string) (StatusResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return StatusResponse{}, fmt.Errorf("session id is empty")
	}

	req, err := c.newRequest(ctx, http.MethodGet, apiPrefix+"/sessions/"+url.PathEscape(sessionID)+"/status", nil)
	if err != nil {
		return StatusResponse{}, err
	}

	var resp StatusResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return StatusResponse{}, err
	}
	return resp, nil
}

// GetReport fetches the full report for a completed session. Status and
// report live on separate endpoints so the large payload transfers once,
// at completion.
func (c *Client) GetReport(ctx context.Context, sessionID string) (ReportResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return ReportResponse{}, fmt.Errorf("session id is empty")
	}

	req, err := c.newRequest(ctx, http.MethodGet, apiPrefix+"/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return ReportResponse{}, err
	}

	var resp ReportResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return ReportResponse{}, err
	}
	return resp, nil
}

// ListSessions returns recent sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, limit, offset int) ([]StatusResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	path := fmt.Sprintf("%s/sessions/?limit=%d&offset=%d", apiPrefix, limit, offset)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp []StatusResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Health probes the service health endpoint (not under the API prefix).
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.Status != "healthy" {
		return fmt.Errorf("service reports status %q", resp.Status)
	}
	return nil
}

// newRequest builds a request with request id and bearer auth attached.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// do executes the request and decodes a JSON payload into out. A non-2xx
// status becomes *APIError; transport failures propagate wrapped.
func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.Debug("api call",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != wantStatus {
		return &APIError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// readDetail extracts the FastAPI-style {"detail": ...} message when present.
func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 8192))
	if err != nil {
		return ""
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(raw))
}
