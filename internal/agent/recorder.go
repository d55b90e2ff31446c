package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Skufu/healthmate/internal/gateway"
	"github.com/Skufu/healthmate/internal/store"
)

const DefaultHistoryLimit = 10

// ConversationStore persists conversation turns and reasoning traces.
type ConversationStore interface {
	RecentTurns(ctx context.Context, userID, conversationID string, limit int) ([]store.Turn, error)
	AppendTurns(ctx context.Context, turns ...store.Turn) error
	SaveReasoningLog(ctx context.Context, log store.ReasoningLog) error
}

// Recorder loads prior turns for the model and appends each finished turn
// and its reasoning trace.
type Recorder struct {
	store        ConversationStore
	historyLimit int
	newID        func() string
}

func NewRecorder(s ConversationStore, historyLimit int) *Recorder {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Recorder{store: s, historyLimit: historyLimit, newID: uuid.NewString}
}

// LoadHistory returns the most recent answered exchanges of a user's
// conversation, oldest first. An empty id is a new conversation. A user
// turn is replayed only together with a non-empty model answer, so a turn
// that ended without text (an exhausted loop) is left out and the history
// keeps alternating user and model roles.
func (r *Recorder) LoadHistory(ctx context.Context, userID, conversationID string) ([]gateway.Turn, error) {
	if conversationID == "" {
		return nil, nil
	}
	turns, err := r.store.RecentTurns(ctx, userID, conversationID, r.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := make([]gateway.Turn, 0, len(turns))
	for i := 0; i+1 < len(turns); i++ {
		q, a := turns[i], turns[i+1]
		if q.Role != store.RoleUser || a.Role != store.RoleModel {
			continue
		}
		if strings.TrimSpace(q.Content) != "" && strings.TrimSpace(a.Content) != "" {
			history = append(history,
				gateway.Turn{Role: gateway.RoleUser, Text: q.Content},
				gateway.Turn{Role: gateway.RoleModel, Text: a.Content},
			)
		}
		i++
	}
	return history, nil
}

// Record appends the user message and the answer to the conversation,
// allocating an id when conversationID is empty, and saves the reasoning
// trace under a fresh session id. The id is returned even when a write
// fails.
func (r *Recorder) Record(ctx context.Context, userID, conversationID, message string, res Result) (string, error) {
	if conversationID == "" {
		conversationID = r.newID()
	}

	var errs []error
	if err := r.store.AppendTurns(ctx,
		store.Turn{ConversationID: conversationID, UserID: userID, Role: store.RoleUser, Content: message},
		store.Turn{ConversationID: conversationID, UserID: userID, Role: store.RoleModel, Content: res.Response},
	); err != nil {
		errs = append(errs, fmt.Errorf("append turns: %w", err))
	}

	steps, err := json.Marshal(res.Steps)
	if err != nil {
		errs = append(errs, fmt.Errorf("encode steps: %w", err))
	} else if err := r.store.SaveReasoningLog(ctx, store.ReasoningLog{
		UserID:          userID,
		SessionID:       r.newID(),
		Steps:           steps,
		TotalIterations: res.Iterations,
	}); err != nil {
		errs = append(errs, fmt.Errorf("save reasoning log: %w", err))
	}
	return conversationID, errors.Join(errs...)
}

// Request is one agent call from a client.
type Request struct {
	Message        string
	UserID         string
	ConversationID string
}

type Reply struct {
	Response       string          `json:"response"`
	ReasoningSteps []ReasoningStep `json:"reasoning_steps"`
	ConversationID string          `json:"conversation_id"`
}

// Service runs a turn end to end: load history, orchestrate, record.
// Storage failures are logged and never fail the turn.
type Service struct {
	orch     *Orchestrator
	recorder *Recorder
	logger   *slog.Logger
}

func NewService(orch *Orchestrator, recorder *Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orch: orch, recorder: recorder, logger: logger}
}

func (s *Service) Respond(ctx context.Context, req Request) (Reply, error) {
	return s.respond(ctx, req, nil)
}

// RespondStream is Respond with progress delivered to emit.
func (s *Service) RespondStream(ctx context.Context, req Request, emit func(Event)) (Reply, error) {
	return s.respond(ctx, req, emit)
}

func (s *Service) respond(ctx context.Context, req Request, emit func(Event)) (Reply, error) {
	history, err := s.recorder.LoadHistory(ctx, req.UserID, req.ConversationID)
	if err != nil {
		s.logger.Warn("conversation history unavailable", "conversation_id", req.ConversationID, "error", err)
		history = nil
	}

	in := Input{UserID: req.UserID, Message: req.Message, History: history}
	var res Result
	if emit != nil {
		res, err = s.orch.RunStream(ctx, in, emit)
	} else {
		res, err = s.orch.Run(ctx, in)
	}
	if err != nil {
		return Reply{}, err
	}

	convID, err := s.recorder.Record(ctx, req.UserID, req.ConversationID, req.Message, res)
	if err != nil {
		s.logger.Warn("recording agent turn failed", "conversation_id", convID, "error", err)
	}
	return Reply{Response: res.Response, ReasoningSteps: res.Steps, ConversationID: convID}, nil
}
