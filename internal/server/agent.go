package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/healthmate/internal/agent"
)

const agentFailure = "An error occurred processing your request"

type agentRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

// bindAgentRequest writes a 400 and returns false when the body is unusable.
func bindAgentRequest(c *gin.Context) (agent.Request, bool) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return agent.Request{}, false
	}
	req.Message = strings.TrimSpace(req.Message)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.Message == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message and userId are required"})
		return agent.Request{}, false
	}
	return agent.Request{Message: req.Message, UserID: req.UserID, ConversationID: req.ConversationID}, true
}

func (h *handlers) agent(c *gin.Context) {
	req, ok := bindAgentRequest(c)
	if !ok {
		return
	}
	h.Logger.Info("agent request", "user_id", req.UserID, "conversation_id", req.ConversationID)

	reply, err := h.Agent.Respond(c.Request.Context(), req)
	if err != nil {
		h.Logger.Error("agent turn failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": agentFailure})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// agentStream writes one JSON event per line: text fragments and reasoning
// steps as they happen, then a done or error event.
func (h *handlers) agentStream(c *gin.Context) {
	req, ok := bindAgentRequest(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	write := func(v any) {
		if err := enc.Encode(v); err != nil {
			h.Logger.Debug("stream write failed", "error", err)
			return
		}
		c.Writer.Flush()
	}

	reply, err := h.Agent.RespondStream(c.Request.Context(), req, func(ev agent.Event) {
		write(ev)
	})
	if err != nil {
		h.Logger.Error("agent stream failed", "user_id", req.UserID, "error", err)
		write(gin.H{"type": "error", "error": agentFailure})
		return
	}
	write(gin.H{
		"type":            "done",
		"response":        reply.Response,
		"reasoning_steps": reply.ReasoningSteps,
		"conversation_id": reply.ConversationID,
	})
}
