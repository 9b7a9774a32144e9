// Package server exposes the HTTP surface consumed by the chat front end.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldworks/crewchat/internal/auth"
	"github.com/fieldworks/crewchat/internal/cloud"
	"github.com/fieldworks/crewchat/internal/completion"
	"github.com/fieldworks/crewchat/internal/history"
	"github.com/fieldworks/crewchat/internal/persona"
)

// Server wires the gateways behind HTTP handlers. It never lets an
// external-call failure escape as a panic or a raw error page: every
// failure path becomes a structured JSON error body.
type Server struct {
	gateway     *history.Gateway
	completions *completion.Gateway
	registry    *persona.Registry
	tokens      *cloud.TokenClient
	identity    auth.Identity
}

// New creates a server over the given collaborators.
func New(gateway *history.Gateway, completions *completion.Gateway, registry *persona.Registry, tokens *cloud.TokenClient, identity auth.Identity) *Server {
	return &Server{
		gateway:     gateway,
		completions: completions,
		registry:    registry,
		tokens:      tokens,
		identity:    identity,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/history", s.handleHistory)
	mux.HandleFunc("/api/conversations", s.handleConversations)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/assistant-ui-token", s.handleToken)
	mux.HandleFunc("/api/personas", s.handlePersonas)
	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
