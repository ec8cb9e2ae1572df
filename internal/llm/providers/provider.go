package providers

import "context"

// Message is a single turn in a chat exchange.
type Message struct {
	Role    string
	Content string
}

// ChatOptions tunes a plain chat completion.
type ChatOptions struct {
	Temperature     float64
	MaxOutputTokens int64
}

// ToolDefinition describes one callable tool exposed to the model. Parameters
// holds a JSON schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolInvocation records a completed tool call for source attribution.
type ToolInvocation struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolRunRequest drives a bounded multi-turn tool loop.
type ToolRunRequest struct {
	Instructions    string
	Prompt          string
	Tools           []ToolDefinition
	Execute         func(ctx context.Context, call ToolCall) (string, error)
	MaxTurns        int
	MaxOutputTokens int64
	Temperature     float64
}

// RunResult is the final output of a tool loop together with the trace of
// tool calls the model made along the way.
type RunResult struct {
	Output      string
	Invocations []ToolInvocation
}

// Provider abstracts the hosted LLM backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (string, error)
	RunTools(ctx context.Context, req ToolRunRequest) (*RunResult, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}
