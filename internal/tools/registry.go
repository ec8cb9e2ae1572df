package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/equitylens/equitylens/internal/llm"
)

// Handler executes a tool call. The arguments map is decoded from the
// model's JSON payload; handlers return a string payload fed back to the
// model verbatim.
type Handler func(ctx context.Context, args map[string]interface{}) (string, error)

// Tool pairs a definition with its handler.
type Tool struct {
	Definition llm.ToolDefinition
	Handler    Handler
}

// Registry holds the tools offered to a model during a research run. All
// validation happens at registration time so a malformed tool can never
// reach a live tool-calling loop.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. It rejects empty names, missing handlers, missing
// parameter schemas, and duplicate registrations.
func (r *Registry) Register(def llm.ToolDefinition, handler Handler) error {
	if def.Name == "" {
		return fmt.Errorf("tools: register: empty tool name")
	}
	if handler == nil {
		return fmt.Errorf("tools: register %s: nil handler", def.Name)
	}
	if def.Parameters == nil {
		return fmt.Errorf("tools: register %s: missing parameter schema", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tools: register %s: already registered", def.Name)
	}
	r.tools[def.Name] = Tool{Definition: def, Handler: handler}
	return nil
}

// MustRegister is Register that panics on error. Intended for static
// registration during startup where a failure is a programming error.
func (r *Registry) MustRegister(def llm.ToolDefinition, handler Handler) {
	if err := r.Register(def, handler); err != nil {
		panic(err)
	}
}

// Definitions returns the registered tool definitions in name order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute decodes the call's JSON arguments and dispatches to the handler.
// Unknown tool names and malformed arguments return an error rather than
// panicking so the calling loop can surface the failure to the model.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	r.mu.RLock()
	tool, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("tools: unknown tool %q", call.Name)
	}
	args := map[string]interface{}{}
	if trimmed := strings.TrimSpace(call.Arguments); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return "", fmt.Errorf("tools: %s: decode arguments: %w", call.Name, err)
		}
	}
	out, err := tool.Handler(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tools: %s: %w", call.Name, err)
	}
	return out, nil
}
