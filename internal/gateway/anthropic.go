package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const providerAnthropic = "anthropic"

type Anthropic struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
	logger      *slog.Logger
}

func NewAnthropic(cfg Config) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Anthropic{
		client:      anthropic.NewClient(opts...),
		model:       cfg.model(providerAnthropic),
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		logger:      cfg.logger(),
	}, nil
}

func (p *Anthropic) params(system string, messages []anthropic.MessageParam, tools []anthropic.ToolUnionParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(p.temperature),
		Tools:       tools,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func (p *Anthropic) StartChat(ctx context.Context, cc ChatConfig) (Chat, error) {
	messages := make([]anthropic.MessageParam, 0, len(cc.History)+1)
	for _, t := range cc.History {
		block := anthropic.NewTextBlock(t.Text)
		if t.Role == RoleModel {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	return &anthropicChat{
		provider: p,
		system:   cc.System,
		messages: messages,
		tools:    anthropicTools(cc.Tools),
	}, nil
}

func (p *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, p.params("", []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}, nil))
	if err != nil {
		return "", wrap(providerAnthropic, "complete", err)
	}
	text, _ := anthropicContent(msg)
	return text, nil
}

type anthropicChat struct {
	provider *Anthropic
	system   string
	messages []anthropic.MessageParam
	tools    []anthropic.ToolUnionParam
}

func (c *anthropicChat) appendInput(msg Message) {
	if len(msg.Results) == 0 {
		c.messages = append(c.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
		return
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Results))
	for _, r := range msg.Results {
		blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.ContentJSON(), !r.OK))
	}
	c.messages = append(c.messages, anthropic.NewUserMessage(blocks...))
}

func (c *anthropicChat) Send(ctx context.Context, msg Message) (*Response, error) {
	c.appendInput(msg)
	out, err := c.provider.client.Messages.New(ctx, c.provider.params(c.system, c.messages, c.tools))
	if err != nil {
		return nil, wrap(providerAnthropic, "send", err)
	}
	return c.record(out), nil
}

func (c *anthropicChat) SendStream(ctx context.Context, msg Message, onText func(string)) (*Response, error) {
	c.appendInput(msg)
	stream := c.provider.client.Messages.NewStreaming(ctx, c.provider.params(c.system, c.messages, c.tools))
	out := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := out.Accumulate(event); err != nil {
			return nil, wrap(providerAnthropic, "stream", err)
		}
		if event.Type == "content_block_delta" && event.Delta.Type == "text_delta" && onText != nil {
			onText(event.Delta.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, wrap(providerAnthropic, "stream", err)
	}
	return c.record(&out), nil
}

func (c *anthropicChat) record(out *anthropic.Message) *Response {
	c.messages = append(c.messages, out.ToParam())
	text, calls := anthropicContent(out)
	c.provider.logger.Debug("anthropic response", "tool_calls", len(calls), "text_len", len(text))
	return &Response{Text: text, ToolCalls: calls}
}

func anthropicContent(msg *anthropic.Message) (string, []ToolCall) {
	var (
		text  strings.Builder
		calls []ToolCall
	)
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if len(b.Input) > 0 {
				_ = json.Unmarshal(b.Input, &args)
			}
			calls = append(calls, ToolCall{ID: b.ID, Name: b.Name, Args: args})
		}
	}
	return text.String(), calls
}
