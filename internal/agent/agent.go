// Package agent drives the tool-orchestration loop: the model is sent the
// user's message, every tool call it requests is dispatched, the results
// go back in one batch, and the cycle repeats until the model answers in
// plain text or the iteration cap is reached.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/Skufu/healthmate/internal/gateway"
	"github.com/Skufu/healthmate/internal/tools"
)

const (
	DefaultMaxIterations   = 6
	DefaultToolConcurrency = 4
)

// Dispatcher executes one tool call on behalf of a caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, caller tools.Caller, name string, args map[string]any) (any, error)
}

type Config struct {
	System          string
	Tools           []mcp.Tool
	MaxIterations   int
	ToolConcurrency int
}

// Input is one user turn.
type Input struct {
	UserID  string
	Message string
	History []gateway.Turn
}

type Result struct {
	Response string
	Steps    []ReasoningStep
	// Iterations is the number of gateway round-trips made.
	Iterations int
	State      State
}

type Orchestrator struct {
	gw         gateway.Gateway
	dispatcher Dispatcher
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

func New(gw gateway.Gateway, d Dispatcher, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.System == "" {
		cfg.System = DefaultSystemPrompt
	}
	if cfg.Tools == nil {
		cfg.Tools = tools.Declarations()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.ToolConcurrency <= 0 {
		cfg.ToolConcurrency = DefaultToolConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{gw: gw, dispatcher: d, cfg: cfg, logger: logger, now: time.Now}
}

// Run executes one turn to completion. Tool failures are fed back to the
// model; only a gateway failure returns an error.
func (o *Orchestrator) Run(ctx context.Context, in Input) (Result, error) {
	return o.run(ctx, in, nil)
}

// RunStream is Run with text fragments and steps delivered to emit as they
// happen. Text streams only when the chat supports it.
func (o *Orchestrator) RunStream(ctx context.Context, in Input, emit func(Event)) (Result, error) {
	return o.run(ctx, in, emit)
}

type turn struct {
	o      *Orchestrator
	chat   gateway.Chat
	caller tools.Caller
	emit   func(Event)
	res    Result
}

func (o *Orchestrator) run(ctx context.Context, in Input, emit func(Event)) (Result, error) {
	chat, err := o.gw.StartChat(ctx, gateway.ChatConfig{
		System:  o.cfg.System,
		History: in.History,
		Tools:   o.cfg.Tools,
	})
	if err != nil {
		return Result{}, fmt.Errorf("start chat: %w", err)
	}

	t := &turn{
		o:      o,
		chat:   chat,
		caller: tools.Caller{UserID: in.UserID},
		emit:   emit,
		res:    Result{Steps: []ReasoningStep{}, State: StateAwaitingModel},
	}

	resp, err := t.send(ctx, gateway.Message{Text: augment(in.Message, in.UserID)})
	if err != nil {
		return Result{}, err
	}
	for {
		if len(resp.ToolCalls) == 0 {
			t.res.Response = resp.Text
			t.res.State = StateAnswered
			t.record(ReasoningStep{
				Iteration: t.res.Iterations,
				Type:      StepSynthesis,
				Action:    "Generated final comprehensive response",
			})
			break
		}
		if t.res.Iterations >= o.cfg.MaxIterations {
			t.res.Response = resp.Text
			t.res.State = StateExhausted
			t.record(ReasoningStep{
				Iteration: t.res.Iterations,
				Type:      StepExhausted,
				Action:    fmt.Sprintf("Iteration limit of %d reached with %d tool call(s) pending", o.cfg.MaxIterations, len(resp.ToolCalls)),
			})
			o.logger.Warn("agent iteration limit reached",
				"user_id", in.UserID,
				"max_iter", o.cfg.MaxIterations,
				"pending_calls", len(resp.ToolCalls),
			)
			break
		}

		t.res.State = StateDispatchingTools
		results := t.dispatch(ctx, resp.ToolCalls)

		t.res.State = StateAwaitingModel
		resp, err = t.send(ctx, gateway.Message{Results: results})
		if err != nil {
			return Result{}, err
		}
	}

	o.logger.Info("agent turn finished",
		"user_id", in.UserID,
		"state", t.res.State,
		"iterations", t.res.Iterations,
		"steps", len(t.res.Steps),
	)
	return t.res, nil
}

func (t *turn) send(ctx context.Context, msg gateway.Message) (*gateway.Response, error) {
	t.res.Iterations++
	start := time.Now()

	var (
		resp *gateway.Response
		err  error
	)
	if sc, ok := t.chat.(gateway.StreamingChat); ok && t.emit != nil {
		resp, err = sc.SendStream(ctx, msg, func(text string) {
			t.emit(Event{Type: EventText, Text: text})
		})
	} else {
		resp, err = t.chat.Send(ctx, msg)
		if err == nil && t.emit != nil && resp.Text != "" {
			t.emit(Event{Type: EventText, Text: resp.Text})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("iteration %d: %w", t.res.Iterations, err)
	}

	t.o.logger.Debug("agent llm response",
		"iter", t.res.Iterations,
		"tool_calls", len(resp.ToolCalls),
		"results_sent", len(msg.Results),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return resp, nil
}

// dispatch runs every call of one iteration, concurrently but bounded,
// and returns exactly one result per call in call order.
func (t *turn) dispatch(ctx context.Context, calls []gateway.ToolCall) []gateway.ToolResult {
	iter := t.res.Iterations
	for _, call := range calls {
		t.record(ReasoningStep{
			Iteration: iter,
			Type:      StepPlanning,
			Action:    "Decided to call: " + call.Name,
			Tool:      call.Name,
			Args:      call.Args,
		})
	}

	results := make([]gateway.ToolResult, len(calls))
	var g errgroup.Group
	g.SetLimit(t.o.cfg.ToolConcurrency)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = t.execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		step := ReasoningStep{Iteration: iter, Type: StepExecution, Tool: r.Name}
		if r.OK {
			step.Result = r.Payload
			step.Status = StatusSuccess
		} else {
			step.Error = r.Error
			step.Status = StatusFailed
		}
		t.record(step)
	}
	return results
}

func (t *turn) execute(ctx context.Context, call gateway.ToolCall) (res gateway.ToolResult) {
	res = gateway.ToolResult{CallID: call.ID, Name: call.Name}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.OK, res.Payload, res.Error = false, nil, fmt.Sprintf("tool %s panicked: %v", call.Name, p)
			t.o.logger.Error("agent tool panic", "tool", call.Name, "panic", p)
		}
	}()

	payload, err := t.o.dispatcher.Dispatch(ctx, t.caller, call.Name, call.Args)
	if err != nil {
		res.Error = err.Error()
		t.o.logger.Warn("agent tool exec failed", "tool", call.Name, "error", err)
		return res
	}
	res.OK = true
	res.Payload = payload
	t.o.logger.Debug("agent tool exec done",
		"tool", call.Name,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res
}

func (t *turn) record(step ReasoningStep) {
	step.Timestamp = t.o.now().UTC()
	t.res.Steps = append(t.res.Steps, step)
	if t.emit != nil {
		t.emit(Event{Type: EventStep, Step: &step})
	}
}
