package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestToolResultContent(t *testing.T) {
	tests := []struct {
		name   string
		result ToolResult
		want   map[string]any
	}{
		{
			name:   "failure carries error text",
			result: ToolResult{Name: "x", OK: false, Error: "boom"},
			want:   map[string]any{"error": "boom"},
		},
		{
			name:   "object payload passes through",
			result: ToolResult{Name: "x", OK: true, Payload: map[string]any{"total_count": 2}},
			want:   map[string]any{"total_count": float64(2)},
		},
		{
			name:   "scalar payload is wrapped",
			result: ToolResult{Name: "x", OK: true, Payload: []string{"a"}},
			want:   map[string]any{"result": []any{"a"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.result.Content()); diff != "" {
				t.Fatalf("Content() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseArgsToleratesGarbage(t *testing.T) {
	if got := parseArgs(""); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
	if got := parseArgs("{not json"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %v", got)
	}
	got := parseArgs(`{"days":14}`)
	if got["days"] != float64(14) {
		t.Fatalf("days = %v", got["days"])
	}
}

func TestErrorUnwraps(t *testing.T) {
	base := errors.New("quota")
	err := wrap("gemini", "send", base)
	var gwErr *Error
	if !errors.As(err, &gwErr) || gwErr.Provider != "gemini" {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped error to match base")
	}
	if wrap("gemini", "send", nil) != nil {
		t.Fatal("wrap(nil) should be nil")
	}
}

func sampleTool() mcp.Tool {
	return mcp.NewTool("analyze_nutrition",
		mcp.WithDescription("Analyze recent nutrition"),
		mcp.WithNumber("days", mcp.Description("Days to analyze")),
		mcp.WithArray("symptoms", mcp.Required(), mcp.Items(map[string]any{"type": "string"})),
	)
}

func TestSchemaMap(t *testing.T) {
	m := schemaMap(sampleTool().InputSchema)
	if m["type"] != "object" {
		t.Fatalf("type = %v", m["type"])
	}
	if diff := cmp.Diff([]string{"symptoms"}, m["required"]); diff != "" {
		t.Fatalf("required mismatch:\n%s", diff)
	}
	props, ok := m["properties"].(map[string]any)
	if !ok || len(props) != 2 {
		t.Fatalf("properties = %#v", m["properties"])
	}

	empty := schemaMap(mcp.ToolInputSchema{})
	if empty["type"] != "object" || empty["properties"] == nil {
		t.Fatalf("empty schema not defaulted: %#v", empty)
	}
}

func TestProviderToolConversions(t *testing.T) {
	tools := []mcp.Tool{sampleTool()}

	if got := geminiTools(tools); len(got) != 1 || len(got[0].FunctionDeclarations) != 1 {
		t.Fatalf("gemini declarations = %#v", got)
	}
	if got := openAITools(tools); len(got) != 1 {
		t.Fatalf("openai tools = %d", len(got))
	}
	if got := anthropicTools(tools); len(got) != 1 || got[0].OfTool == nil || got[0].OfTool.Name != "analyze_nutrition" {
		t.Fatalf("anthropic tools = %#v", got)
	}

	ol := ollamaTools(tools)
	if len(ol) != 1 || ol[0].Function.Name != "analyze_nutrition" {
		t.Fatalf("ollama tools = %#v", ol)
	}
	days := ol[0].Function.Parameters.Properties["days"]
	if len(days.Type) != 1 || days.Type[0] != "number" || days.Description != "Days to analyze" {
		t.Fatalf("days property = %#v", days)
	}
	if geminiTools(nil) != nil || openAITools(nil) != nil || anthropicTools(nil) != nil {
		t.Fatal("expected nil tool lists for no tools")
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "watson"})
	if err == nil || !strings.Contains(err.Error(), "watson") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	for _, p := range []string{"gemini", "openai", "anthropic"} {
		t.Run(p, func(t *testing.T) {
			if _, err := New(context.Background(), Config{Provider: p}); err == nil {
				t.Fatal("expected missing key error")
			}
		})
	}
}

func TestConfigModelDefaults(t *testing.T) {
	if got := (Config{}).model(providerGemini); got != "gemini-2.5-flash" {
		t.Fatalf("gemini default = %q", got)
	}
	if got := (Config{Model: "custom"}).model(providerOpenAI); got != "custom" {
		t.Fatalf("override = %q", got)
	}
}

// recordingServer answers each request with the next canned body and keeps
// the decoded request bodies.
type recordingServer struct {
	mu       sync.Mutex
	bodies   []map[string]any
	replies  []string
	handled  int
	jsonType string
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	s.bodies = append(s.bodies, body)
	reply := s.replies[min(s.handled, len(s.replies)-1)]
	s.handled++
	w.Header().Set("Content-Type", s.jsonType)
	_, _ = io.WriteString(w, reply)
}

func TestOpenAIChatRoundTrip(t *testing.T) {
	rec := &recordingServer{
		jsonType: "application/json",
		replies: []string{
			`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"analyze_nutrition","arguments":"{\"days\":7}"}}]}}]}`,
			`{"id":"c2","object":"chat.completion","created":2,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"You ate well."}}]}`,
		},
	}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	p, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	ctx := context.Background()
	chat, err := p.StartChat(ctx, ChatConfig{
		System:  "be helpful",
		History: []Turn{{Role: RoleUser, Text: "hi"}, {Role: RoleModel, Text: "hello"}},
		Tools:   []mcp.Tool{sampleTool()},
	})
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}

	resp, err := chat.Send(ctx, Message{Text: "how is my diet?"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := []ToolCall{{ID: "call_1", Name: "analyze_nutrition", Args: map[string]any{"days": float64(7)}}}
	if diff := cmp.Diff(want, resp.ToolCalls); diff != "" {
		t.Fatalf("tool calls mismatch (-want +got):\n%s", diff)
	}

	resp, err = chat.Send(ctx, Message{Results: []ToolResult{{CallID: "call_1", Name: "analyze_nutrition", OK: true, Payload: map[string]any{"days_analyzed": 7}}}})
	if err != nil {
		t.Fatalf("Send results: %v", err)
	}
	if resp.Text != "You ate well." || len(resp.ToolCalls) != 0 {
		t.Fatalf("unexpected final response %#v", resp)
	}

	msgs, _ := rec.bodies[1]["messages"].([]any)
	// system, 2 history, user, assistant tool call, tool result
	if len(msgs) != 6 {
		t.Fatalf("second request has %d messages", len(msgs))
	}
	last, _ := msgs[5].(map[string]any)
	if last["role"] != "tool" || last["tool_call_id"] != "call_1" {
		t.Fatalf("last message = %#v", last)
	}
}

func TestAnthropicChatRoundTrip(t *testing.T) {
	rec := &recordingServer{
		jsonType: "application/json",
		replies: []string{
			`{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"Checking."},{"type":"tool_use","id":"tu_1","name":"check_medicines","input":{}}],"stop_reason":"tool_use","usage":{"input_tokens":1,"output_tokens":1}}`,
			`{"id":"msg_2","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"No medicines logged."}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`,
		},
	}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	p, err := NewAnthropic(Config{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	ctx := context.Background()
	chat, err := p.StartChat(ctx, ChatConfig{System: "sys"})
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	resp, err := chat.Send(ctx, Message{Text: "am I on anything?"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].ID != "tu_1" || resp.ToolCalls[0].Name != "check_medicines" {
		t.Fatalf("tool calls = %#v", resp.ToolCalls)
	}

	resp, err = chat.Send(ctx, Message{Results: []ToolResult{{CallID: "tu_1", Name: "check_medicines", OK: false, Error: "db down"}}})
	if err != nil {
		t.Fatalf("Send results: %v", err)
	}
	if resp.Text != "No medicines logged." {
		t.Fatalf("text = %q", resp.Text)
	}

	msgs, _ := rec.bodies[1]["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("second request has %d messages", len(msgs))
	}
	last, _ := msgs[2].(map[string]any)
	blocks, _ := last["content"].([]any)
	block, _ := blocks[0].(map[string]any)
	if block["type"] != "tool_result" || block["tool_use_id"] != "tu_1" || block["is_error"] != true {
		t.Fatalf("tool result block = %#v", block)
	}
}

func TestOllamaChatSynthesizesCallIDs(t *testing.T) {
	rec := &recordingServer{
		jsonType: "application/x-ndjson",
		replies: []string{
			`{"model":"m","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"assess_mental_health","arguments":{}}},{"function":{"name":"check_medicines","arguments":{}}}]},"done":true}`,
		},
	}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	p, err := NewOllama(Config{BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("NewOllama: %v", err)
	}
	chat, err := p.StartChat(context.Background(), ChatConfig{})
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	resp, err := chat.Send(context.Background(), Message{Text: "I'm tired"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(resp.ToolCalls) != 2 || resp.ToolCalls[0].ID == resp.ToolCalls[1].ID {
		t.Fatalf("tool calls = %#v", resp.ToolCalls)
	}
}
