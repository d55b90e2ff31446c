// Package gateway adapts LLM providers to the chat-with-tools contract the
// agent loop consumes: a chat is started with history and tool
// declarations, and every Send returns either final text or tool calls.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Turn roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior exchange replayed as chat history.
type Turn struct {
	Role string
	Text string
}

type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult answers exactly one ToolCall. Exactly one of Payload or
// Error is meaningful, selected by OK.
type ToolResult struct {
	CallID  string
	Name    string
	OK      bool
	Payload any
	Error   string
}

// Content is the labelled object sent back to the model for this result.
func (r ToolResult) Content() map[string]any {
	if !r.OK {
		return map[string]any{"error": r.Error}
	}
	b, err := json.Marshal(r.Payload)
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("encode result: %v", err)}
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err == nil && obj != nil {
		return obj
	}
	var v any
	_ = json.Unmarshal(b, &v)
	return map[string]any{"result": v}
}

// ContentJSON is Content encoded for providers that take text tool output.
func (r ToolResult) ContentJSON() string {
	b, err := json.Marshal(r.Content())
	if err != nil {
		return `{"error":"unencodable tool result"}`
	}
	return string(b)
}

// Message is the next input to a chat: user text, or the results of every
// tool call from the previous response.
type Message struct {
	Text    string
	Results []ToolResult
}

// Response carries final text when ToolCalls is empty.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

type ChatConfig struct {
	System  string
	History []Turn
	Tools   []mcp.Tool
}

type Gateway interface {
	StartChat(ctx context.Context, cfg ChatConfig) (Chat, error)
}

// Chat is a stateful conversation with the model.
type Chat interface {
	Send(ctx context.Context, msg Message) (*Response, error)
}

// StreamingChat is implemented by chats that can surface text fragments as
// they arrive. The returned Response is the same as Send would produce.
type StreamingChat interface {
	Chat
	SendStream(ctx context.Context, msg Message, onText func(string)) (*Response, error)
}

// Completer runs a single prompt without tools or history.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Error wraps any provider failure. It is the only failure that aborts an
// agent turn.
type Error struct {
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Provider: provider, Op: op, Err: err}
}

func parseArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}
