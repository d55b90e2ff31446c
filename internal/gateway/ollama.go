package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ollama/ollama/api"
)

const providerOllama = "ollama"

type Ollama struct {
	client      *api.Client
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

func NewOllama(cfg Config) (*Ollama, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid URL: %w", err)
	}
	return &Ollama{
		client:      api.NewClient(u, http.DefaultClient),
		model:       cfg.model(providerOllama),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.logger(),
	}, nil
}

func (p *Ollama) options() map[string]any {
	opts := map[string]any{"temperature": p.temperature}
	if p.maxTokens > 0 {
		opts["num_predict"] = p.maxTokens
	}
	return opts
}

func (p *Ollama) StartChat(ctx context.Context, cc ChatConfig) (Chat, error) {
	messages := make([]api.Message, 0, len(cc.History)+1)
	if cc.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: cc.System})
	}
	for _, t := range cc.History {
		role := "user"
		if t.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, api.Message{Role: role, Content: t.Text})
	}
	return &ollamaChat{provider: p, messages: messages, tools: ollamaTools(cc.Tools)}, nil
}

func (p *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.chat(ctx, []api.Message{{Role: "user", Content: prompt}}, nil, nil)
	if err != nil {
		return "", wrap(providerOllama, "complete", err)
	}
	return resp.Content, nil
}

func (p *Ollama) chat(ctx context.Context, messages []api.Message, tools []api.Tool, onText func(string)) (api.Message, error) {
	stream := onText != nil
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Tools:    tools,
		Stream:   &stream,
		Options:  p.options(),
	}
	var (
		content strings.Builder
		calls   []api.ToolCall
	)
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content != "" {
			content.WriteString(resp.Message.Content)
			if onText != nil {
				onText(resp.Message.Content)
			}
		}
		calls = append(calls, resp.Message.ToolCalls...)
		return nil
	})
	if err != nil {
		return api.Message{}, err
	}
	return api.Message{Role: "assistant", Content: content.String(), ToolCalls: calls}, nil
}

type ollamaChat struct {
	provider *Ollama
	messages []api.Message
	tools    []api.Tool
}

func (c *ollamaChat) appendInput(msg Message) {
	if len(msg.Results) == 0 {
		c.messages = append(c.messages, api.Message{Role: "user", Content: msg.Text})
		return
	}
	for _, r := range msg.Results {
		c.messages = append(c.messages, api.Message{Role: "tool", Content: r.ContentJSON()})
	}
}

func (c *ollamaChat) Send(ctx context.Context, msg Message) (*Response, error) {
	return c.send(ctx, msg, nil)
}

func (c *ollamaChat) SendStream(ctx context.Context, msg Message, onText func(string)) (*Response, error) {
	if onText == nil {
		onText = func(string) {}
	}
	return c.send(ctx, msg, onText)
}

func (c *ollamaChat) send(ctx context.Context, msg Message, onText func(string)) (*Response, error) {
	c.appendInput(msg)
	out, err := c.provider.chat(ctx, c.messages, c.tools, onText)
	if err != nil {
		return nil, wrap(providerOllama, "send", err)
	}
	c.messages = append(c.messages, out)

	// Ollama does not assign call IDs; synthesize stable ones per response.
	resp := &Response{Text: strings.TrimSpace(out.Content)}
	for i, tc := range out.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:   "call_" + strconv.Itoa(i),
			Name: tc.Function.Name,
			Args: map[string]any(tc.Function.Arguments),
		})
	}
	c.provider.logger.Debug("ollama response", "tool_calls", len(resp.ToolCalls), "text_len", len(resp.Text))
	return resp, nil
}
