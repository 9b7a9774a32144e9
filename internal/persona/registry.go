package persona

import "github.com/fieldworks/crewchat/internal/constants"

// agentBindings maps persona ids to completion backend agents. Unmapped ids
// route to constants.DefaultAgent.
var agentBindings = map[string]string{
	"elise":  "EliseAgent",
	"nathan": "nathanAgent",
	"lucy":   "lucyAgent",
	"jake":   "jakeAgent",
	"chloe":  "chloeAgent",
	"ben":    "benAgent",
	"alex":   "alexAgent",
}

// Registry exposes the persona catalog and agent bindings. It is pure and
// performs no I/O; unknown ids resolve to documented defaults rather than
// errors.
type Registry struct {
	personas []Persona
	byID     map[string]int
	agents   map[string]string
}

// NewRegistry creates a registry over the built-in catalog.
func NewRegistry() *Registry {
	return newRegistry(catalog, agentBindings)
}

func newRegistry(personas []Persona, agents map[string]string) *Registry {
	byID := make(map[string]int, len(personas))
	for i, p := range personas {
		byID[p.ID] = i
	}
	return &Registry{personas: personas, byID: byID, agents: agents}
}

// List returns all personas in catalog order.
func (r *Registry) List() []Persona {
	out := make([]Persona, len(r.personas))
	copy(out, r.personas)
	return out
}

// Resolve returns the persona for id, falling back to the first catalog
// entry for unknown ids.
func (r *Registry) Resolve(id string) Persona {
	if i, ok := r.byID[id]; ok {
		return r.personas[i]
	}
	return r.personas[0]
}

// Known reports whether id names a catalog persona.
func (r *Registry) Known(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// AgentFor returns the completion agent bound to a persona id, or the
// default agent for unmapped ids.
func (r *Registry) AgentFor(personaID string) string {
	if agent, ok := r.agents[personaID]; ok {
		return agent
	}
	return constants.DefaultAgent
}

// PromptFor returns the persona's system prompt. Unknown ids get the
// fallback prompt rather than inheriting another persona's voice.
func (r *Registry) PromptFor(personaID string) string {
	if i, ok := r.byID[personaID]; ok && r.personas[i].SystemPrompt != "" {
		return r.personas[i].SystemPrompt
	}
	return constants.FallbackSystemPrompt
}
