package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	logger      *slog.Logger
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{
		client:      client,
		model:       cfg.model(providerGemini),
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
		logger:      cfg.logger(),
	}, nil
}

func (g *Gemini) config(system string, tools []*genai.Tool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
		Tools:           tools,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

func (g *Gemini) StartChat(ctx context.Context, cc ChatConfig) (Chat, error) {
	history := make([]*genai.Content, 0, len(cc.History))
	for _, t := range cc.History {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(t.Text, role))
	}
	chat, err := g.client.Chats.Create(ctx, g.model, g.config(cc.System, geminiTools(cc.Tools)), history)
	if err != nil {
		return nil, wrap(providerGemini, "start chat", err)
	}
	return &geminiChat{chat: chat, logger: g.logger}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config("", nil))
	if err != nil {
		return "", wrap(providerGemini, "generate", err)
	}
	text, _ := geminiParts(resp)
	return text, nil
}

type geminiChat struct {
	chat   *genai.Chat
	logger *slog.Logger
}

func (c *geminiChat) Send(ctx context.Context, msg Message) (*Response, error) {
	resp, err := c.chat.Send(ctx, geminiInput(msg)...)
	if err != nil {
		return nil, wrap(providerGemini, "send", err)
	}
	text, calls := geminiParts(resp)
	c.logger.Debug("gemini response", "tool_calls", len(calls), "text_len", len(text))
	return &Response{Text: text, ToolCalls: calls}, nil
}

func (c *geminiChat) SendStream(ctx context.Context, msg Message, onText func(string)) (*Response, error) {
	var (
		text  strings.Builder
		calls []ToolCall
	)
	for chunk, err := range c.chat.SendStream(ctx, geminiInput(msg)...) {
		if err != nil {
			return nil, wrap(providerGemini, "stream", err)
		}
		fragment, chunkCalls := geminiParts(chunk)
		if fragment != "" {
			text.WriteString(fragment)
			if onText != nil {
				onText(fragment)
			}
		}
		calls = append(calls, chunkCalls...)
	}
	return &Response{Text: text.String(), ToolCalls: calls}, nil
}

func geminiInput(msg Message) []*genai.Part {
	if len(msg.Results) == 0 {
		return []*genai.Part{genai.NewPartFromText(msg.Text)}
	}
	parts := make([]*genai.Part, 0, len(msg.Results))
	for _, r := range msg.Results {
		parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       r.CallID,
			Name:     r.Name,
			Response: r.Content(),
		}})
	}
	return parts
}

// geminiParts reads the first candidate without the SDK's stdout warnings.
func geminiParts(resp *genai.GenerateContentResponse) (string, []ToolCall) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var (
		text  strings.Builder
		calls []ToolCall
	)
	for _, p := range resp.Candidates[0].Content.Parts {
		switch {
		case p.FunctionCall != nil:
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, ToolCall{ID: p.FunctionCall.ID, Name: p.FunctionCall.Name, Args: args})
		case p.Text != "" && !p.Thought:
			text.WriteString(p.Text)
		}
	}
	return text.String(), calls
}
