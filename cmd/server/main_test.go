package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/Skufu/healthmate/internal/config"
	"github.com/Skufu/healthmate/internal/server"
	"github.com/Skufu/healthmate/internal/store"
)

// useSQLite points the environment at a fresh SQLite file and a keyless
// provider.
func useSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "healthmate.db")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_URL", "http://127.0.0.1:1")
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("HEALTHMATE_CONFIG", "")
	return path
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	useSQLite(t)
	t.Setenv("PORT", "9000")

	var got *config.Config
	cmd := &cli.Command{
		Flags: newApp().Flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig(cmd)
			got = cfg
			return err
		},
	}
	if err := cmd.Run(context.Background(), []string{"healthmate", "--port", "7070", "--log-level", "trace"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Port != "7070" || got.LogLevel != "trace" {
		t.Fatalf("expected flag overrides, got port=%s level=%s", got.Port, got.LogLevel)
	}
}

func TestLoadConfigRejectsBadLogLevel(t *testing.T) {
	useSQLite(t)
	cmd := &cli.Command{
		Flags: newApp().Flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, _, err := loadConfig(cmd)
			return err
		},
	}
	err := cmd.Run(context.Background(), []string{"healthmate", "--log-level", "loud"})
	if err == nil || !strings.Contains(err.Error(), "loud") {
		t.Fatalf("expected log level error, got %v", err)
	}
}

func TestMigrateCommand(t *testing.T) {
	path := useSQLite(t)

	if err := newApp().Run(context.Background(), []string{"healthmate", "migrate"}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st, err := store.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	if _, err := st.ReasoningLogs(context.Background(), "u1", 1); err != nil {
		t.Fatalf("schema missing after migrate: %v", err)
	}
}

func TestBuildDepsMountsEveryRoute(t *testing.T) {
	path := useSQLite(t)
	ctx := context.Background()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	logger, err := config.NewLogger(io.Discard, "error", "json")
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	deps, err := buildDeps(ctx, cfg, st, logger)
	if err != nil {
		t.Fatalf("build deps: %v", err)
	}
	gin.SetMode(gin.TestMode)
	router := server.NewRouter(deps)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{"GET", "/readyz", "", http.StatusOK},
		{"POST", "/api/agent", `{}`, http.StatusBadRequest},
		{"POST", "/api/prediction", `{}`, http.StatusBadRequest},
		{"POST", "/api/generate", `{}`, http.StatusBadRequest},
		{"POST", "/api/analyze-day", `{}`, http.StatusBadRequest},
		{"GET", "/api/search", "", http.StatusBadRequest},
		{"GET", "/api/plans/u1", "", http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.want, w.Code, w.Body.String())
		}
	}
}
