// Package completion streams chat completions from the external
// OpenAI-compatible completion service.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/fieldworks/crewchat/internal/config"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool is a caller-supplied tool definition forwarded to the completion
// service. Parameters is a raw JSON schema.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// StreamChunk represents a chunk of streamed response.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

// PromptSource resolves a persona id to its base system prompt.
type PromptSource interface {
	PromptFor(personaID string) string
}

// Gateway forwards composed message lists to the completion service and
// streams tokens back. It performs no retries; upstream errors surface to
// the caller unchanged.
type Gateway struct {
	client  *openai.Client
	model   string
	temp    float64
	prompts PromptSource
	limiter *rate.Limiter
}

// NewGateway creates a gateway from cfg, resolving persona prompts through
// prompts.
func NewGateway(cfg config.CompletionConfig, prompts PromptSource) *Gateway {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	return &Gateway{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		temp:    cfg.Temperature,
		prompts: prompts,
		limiter: limiter,
	}
}

// ResolveSystemPrompt combines a persona's base prompt with a
// caller-supplied override. The override is appended after a blank line;
// without one the base prompt stands alone.
func (g *Gateway) ResolveSystemPrompt(personaID, override string) string {
	base := g.prompts.PromptFor(personaID)
	if override == "" {
		return base
	}
	return base + "\n\n" + override
}

// Complete streams a completion for messages under the persona's resolved
// system prompt. The returned channel is closed after the final chunk.
func (g *Gateway) Complete(ctx context.Context, messages []Message, systemOverride, personaID string, tools []Tool) (<-chan StreamChunk, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	system := g.ResolveSystemPrompt(personaID, systemOverride)

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    toOpenAIMessages(system, messages),
		Temperature: float32(g.temp),
	}
	if len(tools) > 0 {
		converted, err := toOpenAITools(tools)
		if err != nil {
			return nil, err
		}
		req.Tools = converted
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("persona", personaID).Int("messages", len(messages)).Msg("Completion stream started")

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				ch <- StreamChunk{Done: true}
				return
			}
			if err != nil {
				ch <- StreamChunk{Err: err}
				return
			}

			if len(resp.Choices) > 0 {
				ch <- StreamChunk{Content: resp.Choices[0].Delta.Content}
			}
		}
	}()

	return ch, nil
}

// toOpenAIMessages prepends the resolved system prompt and converts
// messages to the SDK shape. Caller-supplied system messages are dropped:
// the resolved prompt is the single source of system truth per request.
func toOpenAIMessages(system string, messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range messages {
		if m.Role == openai.ChatMessageRoleSystem {
			continue
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return result
}

// toOpenAITools converts caller tools to the SDK tool format. Returns an
// error if any tool carries an invalid JSON schema.
func toOpenAITools(tools []Tool) ([]openai.Tool, error) {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		var params map[string]interface{}
		if len(t.Parameters) > 0 {
			if err := json.Unmarshal(t.Parameters, &params); err != nil {
				return nil, err
			}
		}
		if params == nil {
			params = map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			}
		}

		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		}
	}
	return result, nil
}
