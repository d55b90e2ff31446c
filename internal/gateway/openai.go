package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const providerOpenAI = "openai"

type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
	logger      *slog.Logger
}

func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAI{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(cfg.APIKey),
		),
		model:       cfg.model(providerOpenAI),
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
		logger:      cfg.logger(),
	}, nil
}

func (p *OpenAI) StartChat(ctx context.Context, cc ChatConfig) (Chat, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(cc.History)+1)
	if cc.System != "" {
		messages = append(messages, openai.SystemMessage(cc.System))
	}
	for _, t := range cc.History {
		if t.Role == RoleModel {
			messages = append(messages, openai.AssistantMessage(t.Text))
		} else {
			messages = append(messages, openai.UserMessage(t.Text))
		}
	}
	return &openAIChat{provider: p, messages: messages, tools: openAITools(cc.Tools)}, nil
}

func (p *OpenAI) params(messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolUnionParam) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(p.temperature),
		Tools:       tools,
	}
	if p.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(p.maxTokens)
	}
	return params
}

func (p *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, p.params(
		[]openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)}, nil))
	if err != nil {
		return "", wrap(providerOpenAI, "complete", err)
	}
	if len(completion.Choices) == 0 {
		return "", wrap(providerOpenAI, "complete", errors.New("no choices returned"))
	}
	return completion.Choices[0].Message.Content, nil
}

type openAIChat struct {
	provider *OpenAI
	messages []openai.ChatCompletionMessageParamUnion
	tools    []openai.ChatCompletionToolUnionParam
}

func (c *openAIChat) appendInput(msg Message) {
	if len(msg.Results) == 0 {
		c.messages = append(c.messages, openai.UserMessage(msg.Text))
		return
	}
	for _, r := range msg.Results {
		c.messages = append(c.messages, openai.ToolMessage(r.ContentJSON(), r.CallID))
	}
}

func (c *openAIChat) Send(ctx context.Context, msg Message) (*Response, error) {
	c.appendInput(msg)
	completion, err := c.provider.client.Chat.Completions.New(ctx, c.provider.params(c.messages, c.tools))
	if err != nil {
		return nil, wrap(providerOpenAI, "send", err)
	}
	if len(completion.Choices) == 0 {
		return nil, wrap(providerOpenAI, "send", errors.New("no choices returned"))
	}
	return c.record(completion.Choices[0].Message), nil
}

func (c *openAIChat) SendStream(ctx context.Context, msg Message, onText func(string)) (*Response, error) {
	c.appendInput(msg)
	stream := c.provider.client.Chat.Completions.NewStreaming(ctx, c.provider.params(c.messages, c.tools))
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && onText != nil {
			onText(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, wrap(providerOpenAI, "stream", err)
	}
	if len(acc.Choices) == 0 {
		return nil, wrap(providerOpenAI, "stream", errors.New("no choices returned"))
	}
	return c.record(acc.Choices[0].Message), nil
}

// record appends the assistant turn so tool results can reference its calls.
func (c *openAIChat) record(m openai.ChatCompletionMessage) *Response {
	c.messages = append(c.messages, m.ToParam())
	resp := &Response{Text: strings.TrimSpace(m.Content)}
	for _, tc := range m.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: parseArgs(tc.Function.Arguments),
		})
	}
	c.provider.logger.Debug("openai response", "tool_calls", len(resp.ToolCalls), "text_len", len(resp.Text))
	return resp
}
