// Package cloud issues per-user tokens for the hosted thread-store used by
// the embedded chat UI runtime.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fieldworks/crewchat/internal/config"
	"github.com/fieldworks/crewchat/internal/constants"
)

// ErrNotConfigured is returned when the token-issuing credential is unset.
var ErrNotConfigured = errors.New("assistant API key is not configured")

// TokenClient creates scoped auth tokens against the thread-store cloud
// service.
type TokenClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewTokenClient creates a client from cfg.
func NewTokenClient(cfg config.CloudConfig) *TokenClient {
	return &TokenClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: constants.UpstreamRequestTimeout},
	}
}

type tokenRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// WorkspaceID derives the thread-store workspace from the caller identity:
// org-scoped when an org is present, personal otherwise.
func WorkspaceID(userID, orgID string) string {
	if orgID != "" {
		return orgID + ":" + userID
	}
	return userID
}

// CreateToken issues a bearer token scoped to (userID, workspaceID).
func (c *TokenClient) CreateToken(ctx context.Context, userID, workspaceID string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(tokenRequest{UserID: userID, WorkspaceID: workspaceID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/tokens", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create assistant token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("assistant token status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}

	return decoded.Token, nil
}
