package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Login exchanges credentials for a bearer token and persists it in the
// token store.
func (c *Client) Login(ctx context.Context, email, password string) error {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: strings.ToLower(strings.TrimSpace(email)), Password: password}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode login payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, apiPrefix+"/auth/login/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var token Token
	if err := c.do(req, http.StatusOK, &token); err != nil {
		return err
	}
	if token.AccessToken == "" {
		return fmt.Errorf("login succeeded but no access token returned")
	}

	if c.tokens == nil {
		return fmt.Errorf("no token store configured")
	}
	if err := c.tokens.SetToken(token.AccessToken); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Register creates an account. It does not log in; callers follow up with
// Login.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (RegisterResponse, error) {
	payload := struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name,omitempty"`
	}{Email: strings.ToLower(strings.TrimSpace(email)), Password: password, DisplayName: displayName}

	body, err := json.Marshal(payload)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("encode register payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, apiPrefix+"/auth/register", bytes.NewReader(body))
	if err != nil {
		return RegisterResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp RegisterResponse
	if err := c.do(req, http.StatusCreated, &resp); err != nil {
		return RegisterResponse{}, err
	}
	return resp, nil
}

// Logout discards the persisted token. Purely client-side; the server
// token simply expires.
func (c *Client) Logout() error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.ClearToken()
}
