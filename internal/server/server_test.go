package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afrawles/weekreport/internal/azdevops"
	"github.com/Afrawles/weekreport/internal/config"
	"github.com/Afrawles/weekreport/internal/report"
)

type stubSource struct {
	mu       sync.Mutex
	settings []report.Settings
	ranges   []report.DateRange
	week     report.WeekTasks
	err      error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) record(st report.Settings, r report.DateRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = append(s.settings, st)
	s.ranges = append(s.ranges, r)
}

func (s *stubSource) CreatedTasks(ctx context.Context, st report.Settings, r report.DateRange) ([]report.WorkItem, error) {
	s.record(st, r)
	return s.week.CreatedTasks, nil
}

func (s *stubSource) ClosedTasks(ctx context.Context, st report.Settings, r report.DateRange) ([]report.WorkItem, error) {
	return s.week.ClosedTasks, nil
}

func (s *stubSource) ClosedBugs(ctx context.Context, st report.Settings, r report.DateRange) ([]report.WorkItem, error) {
	return s.week.ClosedBugs, s.err
}

func (s *stubSource) ActiveTasks(ctx context.Context, st report.Settings) ([]report.WorkItem, error) {
	return s.week.ActiveTasks, nil
}

func newTestServer(t *testing.T, src report.WorkItemSource, cfg config.ServerConfig) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := New(report.NewGenerator(src, logger), cfg, logger)
	s.now = func() time.Time { return time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWelcome(t *testing.T) {
	s := newTestServer(t, &stubSource{}, config.ServerConfig{})

	rec := do(t, s, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the API", decode(t, rec)["message"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &stubSource{}, config.ServerConfig{})

	rec := do(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestGetTasks_MissingTokenIsUnauthorized(t *testing.T) {
	src := &stubSource{}
	s := newTestServer(t, src, config.ServerConfig{})

	rec := do(t, s, http.MethodPost, "/api/tasks", `{"organization":"org1"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Settings are required", decode(t, rec)["error"])
	assert.Empty(t, src.settings)
}

func TestGetTasks_EmptyBodyIsUnauthorized(t *testing.T) {
	src := &stubSource{}
	s := newTestServer(t, src, config.ServerConfig{})

	rec := do(t, s, http.MethodPost, "/api/tasks", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Settings are required", decode(t, rec)["error"])
	assert.Empty(t, src.settings)
}

func TestGetTasks_MalformedBody(t *testing.T) {
	s := newTestServer(t, &stubSource{}, config.ServerConfig{})

	rec := do(t, s, http.MethodPost, "/api/tasks", `{"token":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTasks_DefaultsToCurrentWeek(t *testing.T) {
	src := &stubSource{week: report.WeekTasks{
		CreatedTasks: []report.WorkItem{{ID: 1, Project: "Proj", TaskName: "Fix bug", ParentUserStory: "Epic A"}},
	}}
	s := newTestServer(t, src, config.ServerConfig{})

	rec := do(t, s, http.MethodPost, "/api/tasks", `{"token":"abc","organization":"org1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var week report.WeekTasks
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &week))
	assert.Equal(t, src.week.CreatedTasks, week.CreatedTasks)
	assert.NotNil(t, week.ClosedBugs)

	require.Len(t, src.ranges, 1)
	assert.Equal(t, report.DateRange{StartDate: "2024-01-01", EndDate: "2024-01-08"}, src.ranges[0])
	assert.Equal(t, report.Settings{Token: "abc", Organization: "org1"}, src.settings[0])
}

func TestGetTasks_ExplicitRange(t *testing.T) {
	src := &stubSource{}
	s := newTestServer(t, src, config.ServerConfig{})

	rec := do(t, s, http.MethodPost, "/api/tasks",
		`{"token":"abc","organization":"org1","startDate":"2024-02-05","endDate":"2024-02-12"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.DateRange{StartDate: "2024-02-05", EndDate: "2024-02-12"}, src.ranges[0])
}

func TestGetTasks_BadRange(t *testing.T) {
	s := newTestServer(t, &stubSource{}, config.ServerConfig{})

	rec := do(t, s, http.MethodPost, "/api/tasks", `{"token":"abc","startDate":"yesterday"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTasks_SourceFailure(t *testing.T) {
	s := newTestServer(t, &stubSource{err: errors.New("boom")}, config.ServerConfig{})

	rec := do(t, s, http.MethodPost, "/api/tasks", `{"token":"abc","organization":"org1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch tasks", decode(t, rec)["error"])
}

func TestGetTasks_LogsRejectedCredentials(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	src := &stubSource{err: fmt.Errorf("query closed bugs: %w", &azdevops.APIError{StatusCode: http.StatusUnauthorized})}
	s := New(report.NewGenerator(src, logger), config.ServerConfig{AllowedOrigins: []string{"*"}}, logger)

	rec := do(t, s, http.MethodPost, "/api/tasks", `{"token":"bad","organization":"org1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), `"authorization":true`)
}

func TestGenerateReport(t *testing.T) {
	s := newTestServer(t, &stubSource{}, config.ServerConfig{})

	body := `{"createdTasks":[{"id":1,"project":"Proj","taskName":"Fix bug"}],"closedTasks":[],"closedBugs":[],"activeTasks":[]}`
	rec := do(t, s, http.MethodPost, "/api/report", body)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "报告生成成功", out["message"])
	assert.Equal(t, "本周工作内容：\n\n3. 新建的任务：\n   - Fix bug (Proj)\n\n", out["report"])
}

func TestGenerateReport_InvalidBody(t *testing.T) {
	s := newTestServer(t, &stubSource{}, config.ServerConfig{})

	rec := do(t, s, http.MethodPost, "/api/report", `{"createdTasks":`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate report", decode(t, rec)["error"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &stubSource{}, config.ServerConfig{AllowedOrigins: []string{"http://app.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0644))
	s := newTestServer(t, &stubSource{}, config.ServerConfig{StaticDir: dir})

	rec := do(t, s, http.MethodGet, "/app.js", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubSource{}, config.ServerConfig{})

	rec := do(t, s, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
