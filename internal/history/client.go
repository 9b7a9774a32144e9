package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fieldworks/crewchat/internal/constants"
)

// errUpstreamNotFound marks the history service's 404-for-empty convention.
var errUpstreamNotFound = errors.New("history not found upstream")

// Client talks to the external history service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the history service at baseURL. An empty
// baseURL yields a client whose calls fail with ErrNotConfigured.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: constants.UpstreamRequestTimeout},
	}
}

// GetHistory fetches one page of conversation history. It returns
// errUpstreamNotFound on 404, *UpstreamError on other non-2xx statuses and
// *ConnectError on transport failures.
func (c *Client) GetHistory(ctx context.Context, conversationID string, q PageQuery) (Page, error) {
	if c.baseURL == "" {
		return Page{}, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("conversationId", conversationID)
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.BeforeMessageID != "" {
		params.Set("beforeMessageId", q.BeforeMessageID)
	}
	if q.Recent {
		params.Set("recent", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history?"+params.Encode(), nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, &ConnectError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Page{}, errUpstreamNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return Page{}, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, err
	}

	return page, nil
}

// Conversations fetches the upstream conversation list for userID (all
// conversations when empty). The upstream status and raw body are returned
// unchanged so the HTTP layer can pass them through.
func (c *Client) Conversations(ctx context.Context, userID string) (int, []byte, error) {
	if c.baseURL == "" {
		return 0, nil, ErrNotConfigured
	}

	endpoint := c.baseURL + "/conversations"
	if userID != "" {
		endpoint += "?userId=" + url.QueryEscape(userID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &ConnectError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}
