package providers

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"

	"github.com/equitylens/equitylens/internal/common"
)

type OpenAIProvider struct {
	client     openai.Client
	chatModel  string
	embedModel string
}

func NewOpenAIProvider(client openai.Client) *OpenAIProvider {
	chatModel := os.Getenv("OPENAI_CHAT_MODEL")
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	embedModel := os.Getenv("OPENAI_EMBED_MODEL")
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	logger := common.Logger()
	logger.Info("llm: OpenAI provider configured", "chat_model", chatModel, "embed_model", embedModel)
	return &OpenAIProvider{client: client, chatModel: chatModel, embedModel: embedModel}
}

// EmbedModel reports the embedding model the provider is configured with.
func (o *OpenAIProvider) EmbedModel() string {
	return o.embedModel
}

func (o *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (string, error) {
	logger := common.Logger()
	logger.Debug("llm: sending chat completion request", "model", o.chatModel, "messages", len(messages))
	params := openai.ChatCompletionNewParams{Model: shared.ChatModel(o.chatModel)}
	for _, msg := range messages {
		params.Messages = append(params.Messages, toMessageParam(msg))
	}
	applyOptions(&params, opts)
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("llm: chat completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	logger.Debug("llm: chat completion succeeded")
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) RunTools(ctx context.Context, req ToolRunRequest) (*RunResult, error) {
	logger := common.Logger()
	maxTurns := req.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 8
	}
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.Instructions),
			openai.UserMessage(req.Prompt),
		},
	}
	applyOptions(&params, &ChatOptions{Temperature: req.Temperature, MaxOutputTokens: req.MaxOutputTokens})
	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
			Parameters:  shared.FunctionParameters(tool.Parameters),
		}))
	}

	result := &RunResult{}
	for turn := 0; turn < maxTurns; turn++ {
		completion, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			logger.Error("llm: tool loop completion failed", "turn", turn, "error", err)
			return nil, err
		}
		if len(completion.Choices) == 0 {
			return nil, fmt.Errorf("no choices returned")
		}
		message := completion.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			result.Output = message.Content
			logger.Debug("llm: tool loop finished", "turns", turn+1, "tool_calls", len(result.Invocations))
			return result, nil
		}
		params.Messages = append(params.Messages, message.ToParam())
		for _, call := range message.ToolCalls {
			name := call.Function.Name
			args := call.Function.Arguments
			logger.Debug("llm: executing tool call", "tool", name)
			output, execErr := req.Execute(ctx, ToolCall{ID: call.ID, Name: name, Arguments: args})
			if execErr != nil {
				logger.Warn("llm: tool call failed", "tool", name, "error", execErr)
				output = fmt.Sprintf(`{"error":%q,"tool":%q,"status":"error"}`, execErr.Error(), name)
			}
			result.Invocations = append(result.Invocations, ToolInvocation{Name: name, Arguments: args})
			params.Messages = append(params.Messages, openai.ToolMessage(output, call.ID))
		}
	}

	// Turn budget exhausted: force a final answer without tool access.
	logger.Warn("llm: tool loop turn budget exhausted, forcing final answer", "max_turns", maxTurns)
	params.Tools = nil
	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}
	result.Output = completion.Choices[0].Message.Content
	return result, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	logger := common.Logger()
	logger.Debug("llm: creating embeddings", "model", o.embedModel, "items", len(input))
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: input},
	})
	if err != nil {
		logger.Error("llm: embedding request failed", "error", err)
		return nil, err
	}
	vectors := make([][]float32, 0, len(resp.Data))
	for _, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	logger.Debug("llm: embedding request succeeded", "returned", len(vectors))
	return vectors, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}

func applyOptions(params *openai.ChatCompletionNewParams, opts *ChatOptions) {
	if opts == nil {
		return
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(opts.MaxOutputTokens)
	}
}

func toMessageParam(msg Message) openai.ChatCompletionMessageParamUnion {
	switch msg.Role {
	case "system":
		return openai.SystemMessage(msg.Content)
	case "assistant":
		return openai.AssistantMessage(msg.Content)
	default:
		return openai.UserMessage(msg.Content)
	}
}
