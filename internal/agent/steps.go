package agent

import "time"

// State is where a turn is in the orchestration cycle.
type State string

const (
	StateAwaitingModel    State = "awaiting_model"
	StateDispatchingTools State = "dispatching_tools"
	StateAnswered         State = "answered"
	StateExhausted        State = "exhausted"
)

type StepType string

const (
	StepPlanning  StepType = "planning"
	StepExecution StepType = "execution"
	StepSynthesis StepType = "synthesis"
	StepExhausted StepType = "exhausted"
)

// Execution step outcomes.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ReasoningStep is one recorded event of a turn. Planning steps carry the
// requested tool and its arguments; execution steps carry its result or
// error.
type ReasoningStep struct {
	Iteration int            `json:"iteration,omitempty"`
	Type      StepType       `json:"type"`
	Action    string         `json:"action,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Status    string         `json:"status,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Event is emitted while a streamed turn runs.
type Event struct {
	Type string         `json:"type"`
	Text string         `json:"text,omitempty"`
	Step *ReasoningStep `json:"step,omitempty"`
}

// Event types.
const (
	EventText = "text"
	EventStep = "step"
)
