package providers

import (
	"context"
	"fmt"
	"strings"
)

// LocalProvider is a deterministic offline fallback used when no API key is
// configured. It keeps the server bootable for development and tests.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) RunTools(ctx context.Context, req ToolRunRequest) (*RunResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("no prompt provided")
	}
	return &RunResult{Output: "[local-stub] " + strings.TrimSpace(req.Prompt)}, nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i := range input {
		vectors[i] = []float32{0, 0, 0}
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
