package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huangsam/repopulse/internal/analytics"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/internal/view"
	"github.com/huangsam/repopulse/schema"
)

const testFeed = `{"commits": [
	{"committed_date":"2024-02-27T10:00:00Z"},
	{"committed_date":"2024-02-29T10:00:00Z"},
	{"committedDate":"2024-02-29T11:00:00Z"},
	{"committed_date":"2024-03-01T00:30:00+01:00"},
	{"committed_date":"not a date"}
]}`

func testConfig(t *testing.T) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "octo-hello.json"), []byte(testFeed), 0o644))
	return &contract.Config{
		Source:      schema.FileSource,
		DataPath:    filepath.Join(dir, "{owner}-{repo}.json"),
		Days:        schema.DefaultWindowDays,
		Order:       schema.ChronologicalOrder,
		GitHubToken: "server-token",
	}
}

func newTestServer(t *testing.T, cfg *contract.Config, mgr contract.StoreManager, client contract.AnalyticsClient) *Server {
	t.Helper()
	s, err := NewServer(cfg, mgr, client, zap.NewNop())
	require.NoError(t, err)
	return s
}

func do(s *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func analyzeForm(pat string) url.Values {
	return url.Values{
		view.FieldMessage:    {"How active is this repo?"},
		view.FieldOwner:      {"octo"},
		view.FieldRepo:       {"hello"},
		view.FieldCredential: {pat},
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, testConfig(t), nil, nil)
	rec := do(s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndexRendersEmptyForm(t *testing.T) {
	s := newTestServer(t, testConfig(t), nil, nil)
	rec := do(s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, `action="/analyze"`)
	assert.Contains(t, body, `name="ghPat"`)
	assert.Contains(t, body, "echarts.min.js")
	assert.NotContains(t, body, "Daily commits of", "no chart before the first answer")
}

func TestAnalyzeSuccess(t *testing.T) {
	client := &contract.MockAnalyticsClient{}
	req := schema.AnalyticsRequest{Message: "How active is this repo?", Owner: "octo", Repo: "hello"}
	client.On("Ask", mock.Anything, req, "user-pat").
		Return(schema.AnalyticsResponse{Explanation: "Mostly **weekday** commits.\n\n<script>alert(1)</script>"}, nil).Once()

	s := newTestServer(t, testConfig(t), nil, client)
	rec := do(s, http.MethodPost, "/analyze", analyzeForm("user-pat"))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<strong>weekday</strong>", "explanation is rendered as markdown")
	assert.NotContains(t, body, "<script>alert(1)</script>", "raw HTML in the explanation is dropped")
	assert.NotContains(t, body, "user-pat", "the credential is never rendered")
	assert.Contains(t, body, "Daily commits of octo/hello")
	assert.Contains(t, body, "echart-box")
	assert.NotContains(t, body, ChartUnavailableMessage)

	state := s.State()
	assert.False(t, state.Pending)
	assert.False(t, state.RefreshChart, "the chart refresh is acknowledged after rendering")
	assert.Empty(t, state.Error)
	assert.Equal(t, "user-pat", state.Form.Credential)
	client.AssertExpectations(t)
}

func TestAnalyzeReusesCredential(t *testing.T) {
	client := &contract.MockAnalyticsClient{}
	client.On("Ask", mock.Anything, mock.Anything, "first-pat").
		Return(schema.AnalyticsResponse{Explanation: "ok"}, nil).Twice()

	s := newTestServer(t, testConfig(t), nil, client)
	do(s, http.MethodPost, "/analyze", analyzeForm("first-pat"))
	rec := do(s, http.MethodPost, "/analyze", analyzeForm(""))
	require.Equal(t, http.StatusOK, rec.Code)
	client.AssertExpectations(t)
}

func TestAnalyzeFallsBackToServerToken(t *testing.T) {
	client := &contract.MockAnalyticsClient{}
	client.On("Ask", mock.Anything, mock.Anything, "server-token").
		Return(schema.AnalyticsResponse{Explanation: "ok"}, nil).Once()

	s := newTestServer(t, testConfig(t), nil, client)
	rec := do(s, http.MethodPost, "/analyze", analyzeForm(""))
	require.Equal(t, http.StatusOK, rec.Code)
	client.AssertExpectations(t)
}

func TestAnalyzeFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"endpoint down", analytics.ErrAnalyticsUnavailable, view.FetchErrorMessage},
		{"other error", errors.New("boom"), view.FetchErrorMessage},
		{"invalid request", analytics.ErrInvalidRequest, MissingFieldsMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &contract.MockAnalyticsClient{}
			client.On("Ask", mock.Anything, mock.Anything, mock.Anything).
				Return(schema.AnalyticsResponse{}, tt.err).Once()

			s := newTestServer(t, testConfig(t), nil, client)
			rec := do(s, http.MethodPost, "/analyze", analyzeForm("pat"))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)

			state := s.State()
			assert.Equal(t, tt.wantMsg, state.Error)
			assert.False(t, state.Pending)
			assert.Empty(t, state.Explanation)
			assert.NotContains(t, rec.Body.String(), "Daily commits of", "the chart is only fetched on success")
		})
	}
}

func TestAnalyzeMissingFields(t *testing.T) {
	client := &contract.MockAnalyticsClient{}
	s := newTestServer(t, testConfig(t), nil, client)

	form := analyzeForm("pat")
	form.Set(view.FieldMessage, "  ")
	rec := do(s, http.MethodPost, "/analyze", form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MissingFieldsMessage, s.State().Error)
	client.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
}

func TestChartUnavailable(t *testing.T) {
	client := &contract.MockAnalyticsClient{}
	client.On("Ask", mock.Anything, mock.Anything, mock.Anything).
		Return(schema.AnalyticsResponse{Explanation: "An answer without a chart"}, nil).Once()

	s := newTestServer(t, testConfig(t), nil, client)
	form := analyzeForm("pat")
	form.Set(view.FieldRepo, "missing")
	rec := do(s, http.MethodPost, "/analyze", form)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "An answer without a chart", "the page is kept when the chart fails")
	assert.Contains(t, body, ChartUnavailableMessage)
	assert.NotContains(t, body, "echart-box")
}

func TestChartFailureKeepsPreviousChart(t *testing.T) {
	client := &contract.MockAnalyticsClient{}
	client.On("Ask", mock.Anything, mock.Anything, mock.Anything).
		Return(schema.AnalyticsResponse{Explanation: "An answer"}, nil).Twice()

	s := newTestServer(t, testConfig(t), nil, client)
	rec := do(s, http.MethodPost, "/analyze", analyzeForm("pat"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "echart-box")

	form := analyzeForm("pat")
	form.Set(view.FieldRepo, "missing")
	rec = do(s, http.MethodPost, "/analyze", form)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, ChartUnavailableMessage)
	assert.Contains(t, body, "echart-box", "the last chart stays visible")
	assert.Contains(t, body, "Daily commits of octo/hello")
	assert.False(t, s.State().RefreshChart)
	client.AssertExpectations(t)
}

func TestAnalyzeRefetchesCachedCommits(t *testing.T) {
	mgr, err := iocache.NewStoreManager(schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"), "", "")
	require.NoError(t, err)
	defer func() { _ = mgr.Close() }()

	cfg := testConfig(t)
	cfg.CacheTTL = time.Hour
	cfg.Days = 0
	feedPath := filepath.Join(filepath.Dir(cfg.DataPath), "octo-hello.json")

	client := &contract.MockAnalyticsClient{}
	client.On("Ask", mock.Anything, mock.Anything, mock.Anything).
		Return(schema.AnalyticsResponse{Explanation: "An answer"}, nil).Once()
	s := newTestServer(t, cfg, mgr, client)

	// Warm the cache, then change the feed behind it
	rec := do(s, http.MethodGet, "/api/series?owner=octo&repo=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, os.WriteFile(feedPath, []byte(`[{"committed_date":"2024-03-05T10:00:00Z"}]`), 0o644))

	rec = do(s, http.MethodGet, "/api/series?owner=octo&repo=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "2024-03-05", "the cached records are still served")

	rec = do(s, http.MethodPost, "/analyze", analyzeForm("pat"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-03-05", "a successful submit reads the source again")

	rec = do(s, http.MethodGet, "/api/series?owner=octo&repo=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-03-05")
	client.AssertExpectations(t)
}

func TestAnalyzeInvalidRepository(t *testing.T) {
	client := &contract.MockAnalyticsClient{}
	s := newTestServer(t, testConfig(t), nil, client)

	form := analyzeForm("pat")
	form.Set(view.FieldOwner, "</script><script>alert(1)</script>")
	rec := do(s, http.MethodPost, "/analyze", form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, InvalidRepositoryMessage, s.State().Error)
	assert.False(t, s.State().Pending)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	client.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
}

func TestSeriesAPI(t *testing.T) {
	s := newTestServer(t, testConfig(t), nil, nil)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantDates  []string
		wantCounts []int
	}{
		{"default window", "owner=octo&repo=hello", http.StatusOK, []string{"2024-02-27", "2024-02-29"}, []int{1, 3}},
		{"trailing day", "owner=octo&repo=hello&days=1", http.StatusOK, []string{"2024-02-29"}, []int{3}},
		{"range with gaps", "owner=octo&repo=hello&start=2024-02-27&end=2024-02-29&fill_gaps=true", http.StatusOK, []string{"2024-02-27", "2024-02-28", "2024-02-29"}, []int{1, 0, 3}},
		{"inverted range", "owner=octo&repo=hello&start=2024-03-01&end=2024-02-01", http.StatusOK, []string{}, []int{}},
		{"missing repo", "owner=octo", http.StatusBadRequest, nil, nil},
		{"negative days", "owner=octo&repo=hello&days=-1", http.StatusBadRequest, nil, nil},
		{"bad start", "owner=octo&repo=hello&start=yesterday-ish", http.StatusBadRequest, nil, nil},
		{"bad fill_gaps", "owner=octo&repo=hello&fill_gaps=maybe", http.StatusBadRequest, nil, nil},
		{"unknown repo", "owner=octo&repo=missing", http.StatusBadGateway, nil, nil},
		{"parent directory owner", "owner=..&repo=hello", http.StatusBadRequest, nil, nil},
		{"slash in repo", "owner=octo&repo=" + url.QueryEscape("../hello"), http.StatusBadRequest, nil, nil},
		{"markup in owner", "owner=" + url.QueryEscape("<b>octo</b>") + "&repo=hello", http.StatusBadRequest, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodGet, "/api/series?"+tt.query, nil)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"error"`)
				return
			}

			var result schema.SeriesResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			dates := []string{}
			counts := []int{}
			for _, p := range result.Points {
				dates = append(dates, p.Date)
				counts = append(counts, p.Count)
			}
			assert.Equal(t, tt.wantDates, dates)
			assert.Equal(t, tt.wantCounts, counts)
			assert.Equal(t, 1, result.Skipped)
		})
	}
}

func TestChartPage(t *testing.T) {
	s := newTestServer(t, testConfig(t), nil, nil)

	rec := do(s, http.MethodGet, "/chart?owner=octo&repo=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<html")
	assert.Contains(t, body, "Commit activity of octo")
	assert.Contains(t, body, "2024-02-29")

	rec = do(s, http.MethodGet, "/chart?owner=octo&repo=missing", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ChartUnavailableMessage, rec.Body.String())

	rec = do(s, http.MethodGet, "/chart?repo=hello", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// gitConfig points the git source at a fresh clone with one commit.
func gitConfig(t *testing.T) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"commit", "-q", "--allow-empty", "-m", "first"},
	} {
		cmd := exec.Command("git", append([]string{"-C", dir, "-c", "user.name=Test", "-c", "user.email=test@example.com"}, args...)...)
		cmd.Env = append(os.Environ(), "GIT_COMMITTER_DATE=2024-02-29T10:00:00Z", "GIT_AUTHOR_DATE=2024-02-29T10:00:00Z")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	cfg := testConfig(t)
	cfg.Source = schema.GitSource
	cfg.RepoPath = dir
	cfg.MaxCommits = 10
	cfg.Days = 0
	return cfg
}

func TestChartRejectsInvalidRepository(t *testing.T) {
	s := newTestServer(t, gitConfig(t), nil, nil)

	// The git source reads the clone whatever the name, so only the name check stands between the query and the page
	rec := do(s, http.MethodGet, "/chart?owner=octo&repo=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "2024-02-29")

	payload := url.QueryEscape("</script><script>alert(1)</script>")
	for _, target := range []string{
		"/chart?owner=" + payload + "&repo=x",
		"/chart?owner=..&repo=x",
		"/api/series?owner=" + payload + "&repo=x",
	} {
		rec := do(s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotContains(t, rec.Header().Get("Content-Type"), "text/html", target)
	}
}

func TestDarkModePersists(t *testing.T) {
	mgr, err := iocache.NewStoreManager(schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"), "", "")
	require.NoError(t, err)
	defer func() { _ = mgr.Close() }()

	cfg := testConfig(t)
	s := newTestServer(t, cfg, mgr, nil)
	assert.False(t, s.State().DarkMode)

	rec := do(s, http.MethodPost, "/prefs/dark-mode", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.True(t, s.State().DarkMode)

	rec = do(s, http.MethodGet, "/", nil)
	assert.Contains(t, rec.Body.String(), `class="dark"`)

	// A fresh server reads the stored theme
	restarted := newTestServer(t, cfg, mgr, nil)
	assert.True(t, restarted.State().DarkMode)

	rec = do(restarted, http.MethodPost, "/prefs/dark-mode", url.Values{"enabled": {"off"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, restarted.State().DarkMode)

	rec = do(restarted, http.MethodPost, "/prefs/dark-mode", url.Values{"enabled": {"on"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, restarted.State().DarkMode)

	rec = do(restarted, http.MethodPost, "/prefs/dark-mode", url.Values{"enabled": {"no"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, restarted.State().DarkMode)

	rec = do(restarted, http.MethodPost, "/prefs/dark-mode", url.Values{"enabled": {"sometimes"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDarkModeDefault(t *testing.T) {
	cfg := testConfig(t)
	cfg.DarkModeDefault = true
	s := newTestServer(t, cfg, nil, nil)
	assert.True(t, s.State().DarkMode)
}

func TestMetricsEndpoint(t *testing.T) {
	client := &contract.MockAnalyticsClient{}
	client.On("Ask", mock.Anything, mock.Anything, mock.Anything).
		Return(schema.AnalyticsResponse{Explanation: "ok"}, nil).Once()

	s := newTestServer(t, testConfig(t), nil, client)
	do(s, http.MethodGet, "/healthz", nil)
	do(s, http.MethodPost, "/analyze", analyzeForm("pat"))

	rec := do(s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `repopulse_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, body, `repopulse_analytics_requests_total{outcome="ok"} 1`)
	assert.Contains(t, body, `repopulse_chart_fetches_total{outcome="ok"} 1`)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t, testConfig(t), nil, nil)
	s.engine.GET("/panic", func(_ *gin.Context) { panic("boom") })

	rec := do(s, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestRenderMarkdown(t *testing.T) {
	html, err := renderMarkdown("# Title\n\n- one\n- two\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Title</h1>")
	assert.Contains(t, string(html), "<li>one</li>")
	assert.Contains(t, string(html), "<table>", "GFM tables are enabled")
}
