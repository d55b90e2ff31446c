package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/Skufu/healthmate/internal/agent"
	"github.com/Skufu/healthmate/internal/config"
	"github.com/Skufu/healthmate/internal/gateway"
	"github.com/Skufu/healthmate/internal/places"
	"github.com/Skufu/healthmate/internal/predict"
	"github.com/Skufu/healthmate/internal/server"
	"github.com/Skufu/healthmate/internal/store"
	"github.com/Skufu/healthmate/internal/tools"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "healthmate",
		Usage: "health assistant API backed by a tool-calling agent",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file", Sources: cli.EnvVars("HEALTHMATE_CONFIG")},
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port (overrides PORT)"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error (overrides LOG_LEVEL)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP server", Action: serve},
			{Name: "migrate", Usage: "create the database schema and exit", Action: migrate},
		},
	}
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.String("port")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}

	logger, err := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	}
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("schema up to date", "driver", st.Driver())
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	deps, err := buildDeps(ctx, cfg, st, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// An agent turn can span several model round trips.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info("server listening", "port", cfg.Port, "provider", cfg.LLM.Provider, "store", st.Driver())

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	return shutdown(srv, logger)
}

func shutdown(srv *http.Server, logger *slog.Logger) error {
	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildDeps wires the model gateway, tools and agent service onto st.
func buildDeps(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) (server.Deps, error) {
	llm, err := gateway.New(ctx, gateway.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Logger:      logger,
	})
	if err != nil {
		return server.Deps{}, fmt.Errorf("llm gateway: %w", err)
	}

	opts := []places.Option{places.WithLogger(logger)}
	if cfg.Places.Endpoint != "" {
		opts = append(opts, places.WithEndpoint(cfg.Places.Endpoint))
	}
	if cfg.Places.APIKey == "" {
		logger.Warn("SERPAPI_KEY not set; clinic search will fail")
	}
	finder := places.New(cfg.Places.APIKey, opts...)
	predictor := predict.New(llm, logger)

	dispatcher := tools.NewDispatcher(tools.Deps{
		Store:     st,
		Predictor: predictor,
		Places:    finder,
		Logger:    logger,
	})
	orch := agent.New(llm, dispatcher, agent.Config{
		System:          cfg.Agent.SystemPrompt,
		MaxIterations:   cfg.Agent.MaxIterations,
		ToolConcurrency: cfg.Agent.ToolConcurrency,
	}, logger)
	svc := agent.NewService(orch, agent.NewRecorder(st, cfg.Agent.HistoryLimit), logger)

	return server.Deps{
		DB:        st,
		Agent:     svc,
		Predictor: predictor,
		Planner:   predictor,
		Places:    finder,
		Store:     st,
		Logger:    logger,
	}, nil
}
