package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/equitylens/equitylens/internal/llm"
)

func objectSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func TestRegisterAndExecute(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(llm.ToolDefinition{
		Name:        "echo",
		Description: "echoes the message argument",
		Parameters:  objectSchema(),
	}, func(ctx context.Context, args map[string]interface{}) (string, error) {
		msg, _ := args["message"].(string)
		return "echo: " + msg, nil
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	out, err := registry.Execute(context.Background(), llm.ToolCall{
		Name:      "echo",
		Arguments: `{"message":"hello"}`,
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if out != "echo: hello" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	handler := func(ctx context.Context, args map[string]interface{}) (string, error) { return "", nil }
	def := llm.ToolDefinition{Name: "dup", Parameters: objectSchema()}
	if err := registry.Register(def, handler); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := registry.Register(def, handler); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegisterValidation(t *testing.T) {
	registry := NewRegistry()
	handler := func(ctx context.Context, args map[string]interface{}) (string, error) { return "", nil }
	if err := registry.Register(llm.ToolDefinition{Parameters: objectSchema()}, handler); err == nil {
		t.Fatal("expected empty name to fail")
	}
	if err := registry.Register(llm.ToolDefinition{Name: "x", Parameters: objectSchema()}, nil); err == nil {
		t.Fatal("expected nil handler to fail")
	}
	if err := registry.Register(llm.ToolDefinition{Name: "x"}, handler); err == nil {
		t.Fatal("expected missing schema to fail")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Execute(context.Background(), llm.ToolCall{Name: "ghost"}); err == nil {
		t.Fatal("expected unknown tool error")
	}
}

func TestExecuteMalformedArguments(t *testing.T) {
	registry := NewRegistry()
	handler := func(ctx context.Context, args map[string]interface{}) (string, error) { return "ok", nil }
	if err := registry.Register(llm.ToolDefinition{Name: "t", Parameters: objectSchema()}, handler); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := registry.Execute(context.Background(), llm.ToolCall{Name: "t", Arguments: "{not json"})
	if err == nil || !strings.Contains(err.Error(), "decode arguments") {
		t.Fatalf("expected decode error, got %v", err)
	}
	// Empty arguments are valid and decode to an empty map.
	out, err := registry.Execute(context.Background(), llm.ToolCall{Name: "t", Arguments: ""})
	if err != nil || out != "ok" {
		t.Fatalf("empty arguments should succeed, got %q, %v", out, err)
	}
}

func TestDefinitionsSorted(t *testing.T) {
	registry := NewRegistry()
	handler := func(ctx context.Context, args map[string]interface{}) (string, error) { return "", nil }
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(llm.ToolDefinition{Name: name, Parameters: objectSchema()}, handler); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	defs := registry.Definitions()
	if len(defs) != 3 || defs[0].Name != "alpha" || defs[1].Name != "mid" || defs[2].Name != "zeta" {
		t.Fatalf("definitions not sorted: %v", defs)
	}
	if registry.Len() != 3 {
		t.Fatalf("expected 3 tools, got %d", registry.Len())
	}
}
