package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/healthmate/internal/agent"
	"github.com/Skufu/healthmate/internal/places"
	"github.com/Skufu/healthmate/internal/predict"
	"github.com/Skufu/healthmate/internal/store"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

type fakeAgent struct {
	got   agent.Request
	reply agent.Reply
	err   error
}

func (f *fakeAgent) Respond(_ context.Context, req agent.Request) (agent.Reply, error) {
	f.got = req
	return f.reply, f.err
}

func (f *fakeAgent) RespondStream(_ context.Context, req agent.Request, emit func(agent.Event)) (agent.Reply, error) {
	f.got = req
	if f.err != nil {
		return agent.Reply{}, f.err
	}
	emit(agent.Event{Type: agent.EventText, Text: "Hello "})
	for i := range f.reply.ReasoningSteps {
		emit(agent.Event{Type: agent.EventStep, Step: &f.reply.ReasoningSteps[i]})
	}
	emit(agent.Event{Type: agent.EventText, Text: "there."})
	return f.reply, nil
}

type fakePredictor struct {
	res       predict.Result
	followups []string
	err       error
}

func (f fakePredictor) Predict(context.Context, string, map[string]any) (predict.Result, error) {
	return f.res, f.err
}

func (f fakePredictor) Followups(context.Context, string) ([]string, error) {
	return f.followups, f.err
}

type fakePlaces struct {
	got places.Query
	err error
}

func (f *fakePlaces) Search(_ context.Context, q places.Query) ([]places.Place, error) {
	f.got = q
	if f.err != nil {
		return nil, f.err
	}
	lat, lng := 19.1, 72.9
	return []places.Place{{Name: "City Clinic", Lat: &lat, Lng: &lng}}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	d.Logger = quietLogger()
	return NewRouter(d)
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRouterHealthz(t *testing.T) {
	router := newRouter(Deps{DB: fakeDB{}})
	w := do(router, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRouterReadyz(t *testing.T) {
	t.Run("db disabled", func(t *testing.T) {
		w := do(newRouter(Deps{}), "GET", "/readyz", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"db":"disabled"`) {
			t.Fatalf("got %d %s", w.Code, w.Body.String())
		}
	})
	t.Run("db down", func(t *testing.T) {
		w := do(newRouter(Deps{DB: fakeDB{err: errors.New("refused")}}), "GET", "/readyz", "")
		if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "degraded") {
			t.Fatalf("got %d %s", w.Code, w.Body.String())
		}
	})
	t.Run("db ok", func(t *testing.T) {
		w := do(newRouter(Deps{DB: fakeDB{}}), "GET", "/readyz", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"db":"ok"`) {
			t.Fatalf("got %d %s", w.Code, w.Body.String())
		}
	})
}

// Ensure limitBodySize middleware allows small payloads and blocks large ones.
func TestLimitBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		_, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := do(router, "POST", "/echo", "12345")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		w := do(router, "POST", "/echo", "01234567890")
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}

func TestAgentEndpoint(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		for _, body := range []string{`{"message":"hi"}`, `{"userId":"u1"}`, `{"message":"  ","userId":"u1"}`, `not json`} {
			w := do(newRouter(Deps{Agent: &fakeAgent{}}), "POST", "/api/agent", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("%s: expected 400, got %d", body, w.Code)
			}
			if decode(t, w)["error"] == "" {
				t.Fatalf("%s: no error string", body)
			}
		}
	})

	t.Run("success", func(t *testing.T) {
		fa := &fakeAgent{reply: agent.Reply{
			Response:       "Rest well.",
			ReasoningSteps: []agent.ReasoningStep{{Type: agent.StepSynthesis}},
			ConversationID: "c1",
		}}
		w := do(newRouter(Deps{Agent: fa}), "POST", "/api/agent", `{"message":"I'm tired","userId":"u1","conversationId":"c1"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		out := decode(t, w)
		if out["response"] != "Rest well." || out["conversation_id"] != "c1" {
			t.Fatalf("body = %v", out)
		}
		if steps, ok := out["reasoning_steps"].([]any); !ok || len(steps) != 1 {
			t.Fatalf("reasoning_steps = %v", out["reasoning_steps"])
		}
		if fa.got != (agent.Request{Message: "I'm tired", UserID: "u1", ConversationID: "c1"}) {
			t.Fatalf("request = %+v", fa.got)
		}
	})

	t.Run("failure hides cause", func(t *testing.T) {
		fa := &fakeAgent{err: errors.New("gemini send: api key leaked-123 rejected")}
		w := do(newRouter(Deps{Agent: fa}), "POST", "/api/agent", `{"message":"hi","userId":"u1"}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		if strings.Contains(w.Body.String(), "leaked-123") || decode(t, w)["error"] != agentFailure {
			t.Fatalf("body leaks detail: %s", w.Body.String())
		}
	})
}

func TestAgentStreamEndpoint(t *testing.T) {
	fa := &fakeAgent{reply: agent.Reply{
		Response:       "Hello there.",
		ReasoningSteps: []agent.ReasoningStep{{Type: agent.StepPlanning, Tool: "check_medicines"}},
		ConversationID: "c2",
	}}
	w := do(newRouter(Deps{Agent: fa}), "POST", "/api/agent/stream", `{"message":"hi","userId":"u1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type = %q", ct)
	}

	var types []string
	var last map[string]any
	sc := bufio.NewScanner(strings.NewReader(w.Body.String()))
	for sc.Scan() {
		var ev map[string]any
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		types = append(types, ev["type"].(string))
		last = ev
	}
	if strings.Join(types, ",") != "text,step,text,done" {
		t.Fatalf("event types = %v", types)
	}
	if last["conversation_id"] != "c2" || last["response"] != "Hello there." {
		t.Fatalf("done event = %v", last)
	}
}

func TestAgentStreamReportsError(t *testing.T) {
	fa := &fakeAgent{err: errors.New("boom")}
	w := do(newRouter(Deps{Agent: fa}), "POST", "/api/agent/stream", `{"message":"hi","userId":"u1"}`)
	line := strings.TrimSpace(w.Body.String())
	var ev map[string]any
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if ev["type"] != "error" || ev["error"] != agentFailure {
		t.Fatalf("event = %v", ev)
	}
}

func TestPredictionEndpoints(t *testing.T) {
	ok := fakePredictor{
		res:       predict.Result{Conditions: []string{"Migraine"}, Medicines: []string{}, Disclaimer: predict.Disclaimer},
		followups: []string{"How long?", "Any nausea?"},
	}
	router := newRouter(Deps{Predictor: ok})

	if w := do(router, "POST", "/api/prediction", `{"problem":"headache"}`); w.Code != http.StatusBadRequest || decode(t, w)["error"] != "Missing data" {
		t.Fatalf("missing answers: %d %s", w.Code, w.Body.String())
	}
	w := do(router, "POST", "/api/prediction", `{"problem":"headache","answers":{"duration":"2 days"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if out := decode(t, w); out["disclaimer"] != predict.Disclaimer {
		t.Fatalf("body = %v", out)
	}

	if w := do(router, "POST", "/api/followups", `{}`); w.Code != http.StatusBadRequest || decode(t, w)["error"] != "Symptom description required" {
		t.Fatalf("missing problem: %d %s", w.Code, w.Body.String())
	}
	w = do(router, "POST", "/api/followups", `{"problem":"headache"}`)
	if qs, _ := decode(t, w)["followups"].([]any); len(qs) != 2 {
		t.Fatalf("followups body = %s", w.Body.String())
	}

	failing := newRouter(Deps{Predictor: fakePredictor{err: errors.New("model down")}})
	if w := do(failing, "POST", "/api/prediction", `{"problem":"x","answers":{}}`); w.Code != http.StatusInternalServerError || decode(t, w)["error"] != "Prediction failed" {
		t.Fatalf("prediction failure: %d %s", w.Code, w.Body.String())
	}
	if w := do(failing, "POST", "/api/followups", `{"problem":"x"}`); w.Code != http.StatusInternalServerError || decode(t, w)["error"] != "Failed to get follow-ups" {
		t.Fatalf("followups failure: %d %s", w.Code, w.Body.String())
	}
}

func TestSearchEndpoint(t *testing.T) {
	fp := &fakePlaces{}
	router := newRouter(Deps{Places: fp})

	if w := do(router, "GET", "/api/search", ""); w.Code != http.StatusBadRequest || decode(t, w)["error"] != "Query is required" {
		t.Fatalf("missing query: %d %s", w.Code, w.Body.String())
	}

	w := do(router, "GET", "/api/search?query=pharmacy", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if *fp.got.Lat != places.DefaultLat || *fp.got.Lng != places.DefaultLng || fp.got.Text != "pharmacy" {
		t.Fatalf("query = %+v", fp.got)
	}
	results, _ := decode(t, w)["results"].([]any)
	if len(results) != 1 || results[0].(map[string]any)["name"] != "City Clinic" {
		t.Fatalf("results = %v", results)
	}

	if w := do(router, "GET", "/api/search?query=x&lat=north", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad lat: %d", w.Code)
	}

	failing := newRouter(Deps{Places: &fakePlaces{err: errors.New("quota")}})
	if w := do(failing, "GET", "/api/search?query=x&lat=1&lng=2", ""); w.Code != http.StatusInternalServerError || decode(t, w)["error"] != "Failed to fetch places" {
		t.Fatalf("search failure: %d %s", w.Code, w.Body.String())
	}
}

func TestUnwiredRoutesAreNotMounted(t *testing.T) {
	router := newRouter(Deps{})
	for _, path := range []string{"/api/agent", "/api/prediction", "/api/generate", "/api/tracking/food"} {
		if w := do(router, "POST", path, `{}`); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestTrackingEndpoints(t *testing.T) {
	s := newTestStore(t)
	router := newRouter(Deps{Store: s})
	ctx := context.Background()

	created := []struct{ path, body string }{
		{"/api/tracking/nutrition", `{"userId":"u1","items":{"calories":900}}`},
		{"/api/tracking/daily", `{"userId":"u1","date":"2024-05-01","workoutDone":{"type":"run"}}`},
		{"/api/tracking/food", `{"userId":"u1","mealDate":"2024-05-01","calories":500,"protein":20}`},
		{"/api/tracking/workouts", `{"userId":"u1","workoutType":"yoga","completed":true}`},
		{"/api/tracking/mood", `{"userId":"u1","logDate":"2024-05-01","score":4,"category":"Moderate"}`},
		{"/api/medicines", `{"userId":"u1","name":"Ibuprofen","dosage":"200mg"}`},
	}
	for _, tc := range created {
		if w := do(router, "POST", tc.path, tc.body); w.Code != http.StatusCreated {
			t.Fatalf("%s: expected 201, got %d: %s", tc.path, w.Code, w.Body.String())
		}
	}

	rejected := []struct{ path, body string }{
		{"/api/tracking/nutrition", `{"items":{}}`},
		{"/api/tracking/daily", `{"userId":"u1","date":"05/01/2024"}`},
		{"/api/tracking/food", `{"userId":"u1","calories":-1}`},
		{"/api/tracking/mood", `{"userId":"u1","category":"Great"}`},
		{"/api/medicines", `{"userId":"u1"}`},
	}
	for _, tc := range rejected {
		if w := do(router, "POST", tc.path, tc.body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d", tc.path, tc.body, w.Code)
		}
	}

	daily, err := s.DailyTracking(ctx, "u1", "2024-01-01", true)
	if err != nil || len(daily) != 1 {
		t.Fatalf("daily = %v, %v", daily, err)
	}
	mood, err := s.RecentMentalHealthLogs(ctx, "u1", 10)
	if err != nil || len(mood) != 1 || mood[0].Category != "Moderate" {
		t.Fatalf("mood = %v, %v", mood, err)
	}

	w := do(router, "GET", "/api/medicines?userId=u1&active=true", "")
	meds, _ := decode(t, w)["medicines"].([]any)
	if len(meds) != 1 || meds[0].(map[string]any)["medicine_name"] != "Ibuprofen" {
		t.Fatalf("medicines = %s", w.Body.String())
	}
}

func TestPlanAndLogsEndpoints(t *testing.T) {
	s := newTestStore(t)
	router := newRouter(Deps{Store: s})
	ctx := context.Background()

	w := do(router, "GET", "/api/plans/u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	out := decode(t, w)
	if out["plan"] != nil {
		t.Fatalf("expected null plan, got %v", out["plan"])
	}

	if _, err := s.ReplacePlanSection(ctx, "u1", "Starter", store.WorkoutSection, json.RawMessage(`{"workouts":[]}`)); err != nil {
		t.Fatal(err)
	}
	out = decode(t, do(router, "GET", "/api/plans/u1", ""))
	if plan, _ := out["plan"].(map[string]any); plan["name"] != "Starter" {
		t.Fatalf("plan = %v", out["plan"])
	}

	if err := s.SaveReasoningLog(ctx, store.ReasoningLog{UserID: "u1", SessionID: "s1", TotalIterations: 2}); err != nil {
		t.Fatal(err)
	}
	out = decode(t, do(router, "GET", "/api/agent/logs?userId=u1", ""))
	if logs, _ := out["logs"].([]any); len(logs) != 1 {
		t.Fatalf("logs = %v", out["logs"])
	}
	if w := do(router, "GET", "/api/agent/logs?userId=u1&limit=0", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", w.Code)
	}
}

type fakePlanner struct {
	plan     predict.GeneratedPlan
	analysis predict.DayAnalysis
	err      error

	profile         predict.Profile
	planned, actual predict.DayRecord
}

func (f *fakePlanner) GeneratePlan(_ context.Context, p predict.Profile) (predict.GeneratedPlan, error) {
	f.profile = p
	return f.plan, f.err
}

func (f *fakePlanner) AnalyzeDay(_ context.Context, planned, actual predict.DayRecord) (predict.DayAnalysis, error) {
	f.planned, f.actual = planned, actual
	return f.analysis, f.err
}

func TestGenerateEndpoint(t *testing.T) {
	s := newTestStore(t)
	fp := &fakePlanner{plan: predict.GeneratedPlan{
		WorkoutPlan: json.RawMessage(`[{"day":"Day 1"}]`),
		DietPlan:    json.RawMessage(`[{"meal":"Breakfast"}]`),
	}}
	router := newRouter(Deps{Planner: fp, Store: s})

	for _, body := range []string{`{}`, `{"name":"Asha","goal":"strength"}`, `{"name":"Asha","age":29}`} {
		w := do(router, "POST", "/api/generate", body)
		if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "Please provide at least Name, Age, and Goal." {
			t.Fatalf("%s: expected 400, got %d: %s", body, w.Code, w.Body.String())
		}
	}

	w := do(router, "POST", "/api/generate", `{"userId":"u1","name":"Asha","age":29,"goal":"strength","weightKg":60}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	if out["saved"] != true {
		t.Fatalf("expected saved plan, got %v", out)
	}
	if fp.profile.Name != "Asha" || fp.profile.WeightKg != 60 {
		t.Fatalf("profile = %+v", fp.profile)
	}
	plan, err := s.FitnessPlan(context.Background(), "u1")
	if err != nil {
		t.Fatalf("load plan: %v", err)
	}
	if plan.Name != "strength" || string(plan.WorkoutPlan) != `[{"day":"Day 1"}]` || string(plan.DietPlan) != `[{"meal":"Breakfast"}]` {
		t.Fatalf("saved plan = %+v", plan)
	}

	if out := decode(t, do(router, "POST", "/api/generate", `{"name":"Asha","age":29,"goal":"strength"}`)); out["saved"] != false {
		t.Fatalf("expected unsaved plan without userId, got %v", out)
	}
}

func TestGenerateEndpointErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: incomplete plan structure", predict.ErrUnparseable), "Invalid JSON from AI"},
		{errors.New("model down"), "Failed to generate plan"},
	}
	for _, tc := range cases {
		router := newRouter(Deps{Planner: &fakePlanner{err: tc.err}})
		w := do(router, "POST", "/api/generate", `{"name":"Asha","age":29,"goal":"strength"}`)
		if w.Code != http.StatusInternalServerError || decode(t, w)["error"] != tc.want {
			t.Fatalf("%v: got %d: %s", tc.err, w.Code, w.Body.String())
		}
	}
}

func TestAnalyzeDayEndpoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fp := &fakePlanner{analysis: predict.DayAnalysis{WorkoutAdherence: 80, DietAdherence: 50, Feedback: "Nice run."}}
	router := newRouter(Deps{Planner: fp, Store: s})

	if w := do(router, "POST", "/api/analyze-day", `{"userId":"u1","date":"2024-05-01"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("no saved plan: expected 400, got %d", w.Code)
	}
	if _, err := s.ReplacePlanSection(ctx, "u1", "Starter", store.WorkoutSection, json.RawMessage(`{"run":"30m"}`)); err != nil {
		t.Fatal(err)
	}
	if w := do(router, "POST", "/api/analyze-day", `{"userId":"u1","date":"2024-05-01"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("no tracking: expected 400, got %d", w.Code)
	}
	if err := s.AddDailyTracking(ctx, store.DailyTracking{UserID: "u1", Date: "2024-05-01", WorkoutDone: json.RawMessage(`{"run":"40m"}`)}); err != nil {
		t.Fatal(err)
	}

	w := do(router, "POST", "/api/analyze-day", `{"userId":"u1","date":"2024-05-01"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	analysis, _ := decode(t, w)["analysis"].(map[string]any)
	if analysis["workout_adherence"] != 80.0 || analysis["feedback"] != "Nice run." {
		t.Fatalf("analysis = %v", analysis)
	}
	if raw, ok := fp.planned.Workout.(json.RawMessage); !ok || string(raw) != `{"run":"30m"}` {
		t.Fatalf("planned workout = %#v", fp.planned.Workout)
	}
	if fp.planned.Diet != nil || fp.actual.Diet != nil {
		t.Fatalf("expected missing diet sections, got %#v / %#v", fp.planned.Diet, fp.actual.Diet)
	}
	if raw, ok := fp.actual.Workout.(json.RawMessage); !ok || string(raw) != `{"run":"40m"}` {
		t.Fatalf("actual workout = %#v", fp.actual.Workout)
	}

	inline := newRouter(Deps{Planner: fp})
	w = do(inline, "POST", "/api/analyze-day", `{"plan":{"workout":"yoga"},"actual":{"workout":"skipped"}}`)
	if w.Code != http.StatusOK || fp.planned.Workout != "yoga" || fp.actual.Workout != "skipped" {
		t.Fatalf("inline analysis: %d %s planned=%#v", w.Code, w.Body.String(), fp.planned)
	}
	if w := do(inline, "POST", "/api/analyze-day", `{"plan":{"workout":"yoga"}}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing actual without userId: expected 400, got %d", w.Code)
	}
}
