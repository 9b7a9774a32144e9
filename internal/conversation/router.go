package conversation

import (
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldworks/crewchat/internal/constants"
	"github.com/fieldworks/crewchat/internal/persona"
)

// Selection is the (persona, agent, thread) triple driving a chat view.
// AgentID is always derivable from PersonaID via the registry bindings
// unless navigation state carries an explicit override; the pair is never
// updated independently.
type Selection struct {
	PersonaID string
	AgentID   string
	ThreadID  string
}

// Router derives the active Selection from navigation/query state, keeps it
// consistent, and publishes changes back to query state so a reload or a
// shared link reproduces the same view.
type Router struct {
	registry *persona.Registry

	mu  sync.Mutex
	sel Selection
}

// NewRouter creates a router seeded from query values.
func NewRouter(registry *persona.Registry, values url.Values) *Router {
	r := &Router{registry: registry}
	r.sel = r.fromQuery(values)
	return r
}

// NewLocalThreadID mints an ephemeral thread id for a not-yet-persisted
// conversation.
func NewLocalThreadID() string {
	return constants.LocalThreadPrefix + uuid.NewString()
}

func (r *Router) fromQuery(values url.Values) Selection {
	p := r.registry.Resolve(values.Get("employeeId"))

	agent := values.Get("agentName")
	if agent == "" {
		agent = r.registry.AgentFor(p.ID)
	}

	return Selection{
		PersonaID: p.ID,
		AgentID:   agent,
		ThreadID:  values.Get("threadId"),
	}
}

// Selection returns the current selection.
func (r *Router) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel
}

// Select switches the active persona. The bound agent updates in the same
// step and the existing thread id is preserved: switching persona does not
// by itself invalidate a durable backend thread.
func (r *Router) Select(personaID string) Selection {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sel = Selection{
		PersonaID: personaID,
		AgentID:   r.registry.AgentFor(personaID),
		ThreadID:  r.sel.ThreadID,
	}
	log.Debug().Str("persona", r.sel.PersonaID).Str("agent", r.sel.AgentID).Msg("Persona selected")
	return r.sel
}

// SetThread records a new active thread id, leaving persona and agent
// untouched.
func (r *Router) SetThread(threadID string) Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sel.ThreadID = threadID
	return r.sel
}

// Reconcile re-derives the selection from externally-changed navigation
// state (back/forward navigation). The in-memory selection is only
// overwritten when the derived triple actually differs, so unchanged
// navigation does not trigger redundant downstream re-subscriptions.
func (r *Router) Reconcile(values url.Values) (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	derived := r.fromQuery(values)
	if derived == r.sel {
		return r.sel, false
	}

	log.Debug().
		Str("persona", derived.PersonaID).
		Str("agent", derived.AgentID).
		Msg("Selection reconciled from navigation state")
	r.sel = derived
	return r.sel, true
}

// Query publishes the current selection as navigation query values.
func (r *Router) Query() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := url.Values{}
	values.Set("employeeId", r.sel.PersonaID)
	values.Set("agentName", r.sel.AgentID)
	if r.sel.ThreadID != "" {
		values.Set("threadId", r.sel.ThreadID)
	}
	return values
}
