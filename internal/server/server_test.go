package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fieldworks/crewchat/internal/auth"
	"github.com/fieldworks/crewchat/internal/cloud"
	"github.com/fieldworks/crewchat/internal/completion"
	"github.com/fieldworks/crewchat/internal/config"
	"github.com/fieldworks/crewchat/internal/history"
	"github.com/fieldworks/crewchat/internal/persona"
)

// stubFetcher fakes the external history service.
type stubFetcher struct {
	page      history.Page
	err       error
	convBody  []byte
	convCode  int
	convErr   error
	callCount int
}

func (s *stubFetcher) GetHistory(ctx context.Context, conversationID string, q history.PageQuery) (history.Page, error) {
	s.callCount++
	if s.err != nil {
		return history.Page{}, s.err
	}
	return s.page, nil
}

func (s *stubFetcher) Conversations(ctx context.Context, userID string) (int, []byte, error) {
	if s.convErr != nil {
		return 0, nil, s.convErr
	}
	return s.convCode, s.convBody, nil
}

func newTestServer(fetcher history.Fetcher, cloudCfg config.CloudConfig, completionEndpoint string) *Server {
	registry := persona.NewRegistry()
	gateway := history.NewGateway(fetcher, history.NewTTLCache())
	completions := completion.NewGateway(config.CompletionConfig{
		Endpoint: completionEndpoint,
		Model:    "gpt-4o",
		APIKey:   "test-key",
	}, registry)
	return New(gateway, completions, registry, cloud.NewTokenClient(cloudCfg), auth.NewHeaderIdentity())
}

func TestHistoryRequiresConversationID(t *testing.T) {
	srv := newTestServer(&stubFetcher{}, config.CloudConfig{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected a structured error body")
	}
}

func TestHistoryLocalThreadEmptyPage(t *testing.T) {
	fetcher := &stubFetcher{}
	srv := newTestServer(fetcher, config.CloudConfig{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history?conversationId=__LOCALID_x&recent=true&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page history.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(page.Messages) != 0 || page.HasMore {
		t.Errorf("expected empty page, got %+v", page)
	}
	if fetcher.callCount != 0 {
		t.Errorf("expected no upstream call, got %d", fetcher.callCount)
	}
}

func TestHistorySuccess(t *testing.T) {
	fetcher := &stubFetcher{page: history.Page{
		Messages: []history.Message{{ID: "m1", Role: "user", Content: "hi"}},
		HasMore:  true,
	}}
	srv := newTestServer(fetcher, config.CloudConfig{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history?conversationId=abc123&recent=true&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page history.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].ID != "m1" || !page.HasMore {
		t.Errorf("expected payload returned verbatim, got %+v", page)
	}
}

func TestHistoryErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not configured", history.ErrNotConfigured, http.StatusInternalServerError},
		{"upstream error", &history.UpstreamError{Status: http.StatusBadGateway, Body: "boom"}, http.StatusBadGateway},
		{"connectivity", &history.ConnectError{Err: fmt.Errorf("refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubFetcher{err: tt.err}, config.CloudConfig{}, "")

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history?conversationId=abc123", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected a structured error body")
			}
		})
	}
}

func TestConversationsPassthrough(t *testing.T) {
	fetcher := &stubFetcher{convCode: http.StatusAccepted, convBody: []byte(`[{"id":"c1"}]`)}
	srv := newTestServer(fetcher, config.CloudConfig{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations?userId=u1", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected upstream status preserved, got %d", rec.Code)
	}
	if rec.Body.String() != `[{"id":"c1"}]` {
		t.Errorf("expected upstream body preserved, got %s", rec.Body.String())
	}
}

func TestPersonasCatalog(t *testing.T) {
	srv := newTestServer(&stubFetcher{}, config.CloudConfig{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/personas", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var personas []persona.Persona
	if err := json.Unmarshal(rec.Body.Bytes(), &personas); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(personas) != 7 || personas[0].ID != "alex" {
		t.Errorf("unexpected catalog: %d entries", len(personas))
	}
}

func TestTokenUnauthenticated(t *testing.T) {
	srv := newTestServer(&stubFetcher{}, config.CloudConfig{APIKey: "k"}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assistant-ui-token", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestTokenUnconfigured(t *testing.T) {
	srv := newTestServer(&stubFetcher{}, config.CloudConfig{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/assistant-ui-token", nil)
	req.Header.Set("X-User-Id", "u1")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestTokenSuccess(t *testing.T) {
	var gotReq struct {
		UserID      string `json:"user_id"`
		WorkspaceID string `json:"workspace_id"`
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode token request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer upstream.Close()

	srv := newTestServer(&stubFetcher{}, config.CloudConfig{BaseURL: upstream.URL, APIKey: "k"}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/assistant-ui-token", nil)
	req.Header.Set("X-User-Id", "u1")
	req.Header.Set("X-Org-Id", "org1")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "tok-123" {
		t.Errorf("expected plain-text token, got %q", rec.Body.String())
	}
	if gotReq.UserID != "u1" || gotReq.WorkspaceID != "org1:u1" {
		t.Errorf("expected org-scoped workspace, got %+v", gotReq)
	}
}

func TestChatInvalidBody(t *testing.T) {
	srv := newTestServer(&stubFetcher{}, config.CloudConfig{}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{nope")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatStreams(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunk, _ := json.Marshal(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion.chunk",
			"model":   "gpt-4o",
			"choices": []map[string]interface{}{{"index": 0, "delta": map[string]string{"content": "Hi!"}}},
		})
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	srv := newTestServer(&stubFetcher{}, config.CloudConfig{}, upstream.URL)

	body := `{"messages":[{"role":"user","content":"hello"}],"employeeId":"elise"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event stream, got %s", ct)
	}
	out := rec.Body.String()
	if !strings.Contains(out, `"content":"Hi!"`) {
		t.Errorf("expected streamed content, got %s", out)
	}
	if !strings.Contains(out, "data: [DONE]") {
		t.Errorf("expected terminal DONE marker, got %s", out)
	}
}

func TestChatUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"nope"}}`, http.StatusInternalServerError)
	}))
	defer upstream.Close()

	srv := newTestServer(&stubFetcher{}, config.CloudConfig{}, upstream.URL)

	body := `{"messages":[{"role":"user","content":"hello"}],"employeeId":"elise"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var errBody map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if errBody["error"] == "" {
		t.Error("expected a structured error body")
	}
}
