// Package server exposes the agent, prediction, plan, search and tracking
// endpoints over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Skufu/healthmate/internal/agent"
	"github.com/Skufu/healthmate/internal/places"
	"github.com/Skufu/healthmate/internal/predict"
)

const maxBodyBytes = 1 << 20

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type AgentService interface {
	Respond(ctx context.Context, req agent.Request) (agent.Reply, error)
	RespondStream(ctx context.Context, req agent.Request, emit func(agent.Event)) (agent.Reply, error)
}

type Predictor interface {
	Predict(ctx context.Context, problem string, answers map[string]any) (predict.Result, error)
	Followups(ctx context.Context, problem string) ([]string, error)
}

type PlaceSearcher interface {
	Search(ctx context.Context, q places.Query) ([]places.Place, error)
}

// Deps wires the router. Routes whose dependency is nil are not mounted,
// except /readyz which reports a nil DB as disabled.
type Deps struct {
	DB        HealthChecker
	Agent     AgentService
	Predictor Predictor
	Planner   Planner
	Places    PlaceSearcher
	Store     Store
	Logger    *slog.Logger
}

type handlers struct {
	Deps
}

func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handlers{Deps: d}

	router := gin.New()
	router.Use(
		requestLogger(d.Logger),
		gin.Recovery(),
		limitBodySize(maxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", h.readyz)

	api := router.Group("/api")
	if d.Agent != nil {
		api.POST("/agent", h.agent)
		api.POST("/agent/stream", h.agentStream)
	}
	if d.Predictor != nil {
		api.POST("/prediction", h.prediction)
		api.POST("/followups", h.followups)
	}
	if d.Planner != nil {
		api.POST("/generate", h.generatePlan)
		api.POST("/analyze-day", h.analyzeDay)
	}
	if d.Places != nil {
		api.GET("/search", h.search)
	}
	if d.Store != nil {
		h.mountTracking(api)
	}
	return router
}

func (h *handlers) readyz(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"db":     fmt.Sprintf("unhealthy: %v", err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// requestLogger replaces gin's access log with one structured line per
// request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"elapsed", time.Since(start).Round(time.Millisecond),
			"client_ip", c.ClientIP(),
		)
	}
}
