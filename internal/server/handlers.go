package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/fieldworks/crewchat/internal/auth"
	"github.com/fieldworks/crewchat/internal/cloud"
	"github.com/fieldworks/crewchat/internal/completion"
	"github.com/fieldworks/crewchat/internal/constants"
	"github.com/fieldworks/crewchat/internal/history"
)

// handleHistory serves GET /api/chat/history: one page of conversation
// history, read through the gateway's cache.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	params := r.URL.Query()
	conversationID := params.Get("conversationId")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}

	limit := constants.DefaultHistoryLimit
	if v := params.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	q := history.PageQuery{
		Limit:           limit,
		BeforeMessageID: params.Get("beforeMessageId"),
		Recent:          params.Get("recent") == "true",
	}

	page, err := s.gateway.FetchPage(r.Context(), conversationID, q)
	if err != nil {
		var upstream *history.UpstreamError
		var connect *history.ConnectError
		switch {
		case errors.Is(err, history.ErrNotConfigured):
			writeError(w, http.StatusInternalServerError, "API endpoint not configured.")
		case errors.As(err, &upstream):
			writeError(w, upstream.Status, fmt.Sprintf("Error fetching history: %s", upstream.Body))
		case errors.As(err, &connect):
			writeError(w, http.StatusServiceUnavailable, "Failed to connect to history service.")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleConversations serves GET /api/conversations as a passthrough of the
// upstream conversation list.
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status, body, err := s.gateway.Conversations(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		var connect *history.ConnectError
		switch {
		case errors.Is(err, history.ErrNotConfigured):
			writeError(w, http.StatusInternalServerError, "API endpoint not configured.")
		case errors.As(err, &connect):
			writeError(w, http.StatusServiceUnavailable, "Failed to connect to history service.")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("Failed to write conversations response")
	}
}

type chatRequest struct {
	Messages   []completion.Message `json:"messages"`
	System     string               `json:"system,omitempty"`
	Tools      []completion.Tool    `json:"tools,omitempty"`
	EmployeeID string               `json:"employeeId"`
}

type chatChunk struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleChat serves POST /api/chat: a server-sent event stream of
// completion tokens for the selected persona's agent.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stream, err := s.completions.Complete(r.Context(), req.Messages, req.System, req.EmployeeID, req.Tools)
	if err != nil {
		log.Error().Err(err).Str("persona", req.EmployeeID).Msg("Completion failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for chunk := range stream {
		if chunk.Err != nil {
			log.Error().Err(chunk.Err).Str("persona", req.EmployeeID).Msg("Completion stream error")
			writeChunk(w, chatChunk{Error: chunk.Err.Error()})
			flusher.Flush()
			return
		}
		if chunk.Done {
			break
		}
		writeChunk(w, chatChunk{Content: chunk.Content})
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeChunk(w http.ResponseWriter, chunk chatChunk) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode stream chunk")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// handleToken serves POST /api/assistant-ui-token: a plain-text bearer
// token for the hosted thread store, scoped to the caller's identity.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, orgID, err := s.identity.Authenticate(r)
	if err != nil {
		if !errors.Is(err, auth.ErrUnauthenticated) {
			log.Error().Err(err).Msg("Identity lookup failed")
		}
		writeError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	token, err := s.tokens.CreateToken(r.Context(), userID, cloud.WorkspaceID(userID, orgID))
	if err != nil {
		if errors.Is(err, cloud.ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError, "Assistant API key not configured")
			return
		}
		log.Error().Err(err).Msg("Failed to create assistant token")
		writeError(w, http.StatusInternalServerError, "Failed to create assistant token")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(token)); err != nil {
		log.Error().Err(err).Msg("Failed to write token response")
	}
}

// handlePersonas serves GET /api/personas: the persona catalog the front
// end renders its selector and suggested prompts from.
func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.registry.List())
}
