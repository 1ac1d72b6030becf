package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/chart"
	"github.com/huangsam/repopulse/internal/view"
	"github.com/huangsam/repopulse/schema"
)

//go:embed templates/index.html
var templatesFS embed.FS

// ChartUnavailableMessage replaces the chart when its series cannot be fetched.
const ChartUnavailableMessage = "Commit data unavailable."

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// pageData is what the index template renders. Form never carries the credential.
type pageData struct {
	Form        view.Form
	Error       string
	Pending     bool
	Elapsed     int
	DarkMode    bool
	Theme       chart.Theme
	Explanation template.HTML
	HasChart    bool
	ChartRepo   string
	Chart       template.HTML
	ChartError  string
	AssetsHost  string
}

func parsePage() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return tmpl, nil
}

// renderMarkdown converts the explanation to HTML. Raw HTML in the source is dropped.
func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// renderPage writes the page for the current state, re-fetching the chart
// first when the state asks for it.
func (s *Server) renderPage(ctx context.Context, w io.Writer) error {
	s.refreshChart(ctx)

	s.mu.Lock()
	state := s.state
	cached := s.chart
	s.mu.Unlock()

	form := state.Form
	form.Credential = ""
	data := pageData{
		Form:       form,
		Error:      state.Error,
		Pending:    state.Pending,
		Elapsed:    state.ElapsedSeconds,
		DarkMode:   state.DarkMode,
		Theme:      chart.ThemeFor(state.DarkMode),
		HasChart:   !cached.repo.IsZero(),
		ChartRepo:  cached.repo.String(),
		Chart:      cached.html,
		ChartError: cached.err,
		AssetsHost: chart.AssetsHost,
	}
	if state.Explanation != "" {
		html, err := renderMarkdown(state.Explanation)
		if err != nil {
			s.logger.Warn("Failed to render explanation markdown", zap.Error(err))
			html = template.HTML(template.HTMLEscapeString(state.Explanation))
		}
		data.Explanation = html
	}
	return s.page.Execute(w, data)
}

// refreshChart re-fetches the chart when a submit succeeded or the theme changed.
// A successful submit also drops the cached commits of the repository first.
func (s *Server) refreshChart(ctx context.Context) {
	s.mu.Lock()
	state := s.state
	cached := s.chart
	s.mu.Unlock()

	repo := cached.repo
	if state.RefreshChart {
		repo = state.Form.RepoRef()
	}
	if repo.IsZero() || (!state.RefreshChart && cached.darkMode == state.DarkMode) {
		return
	}

	if state.RefreshChart {
		cfg := s.cfg.Clone()
		cfg.Repo = repo
		if err := core.InvalidateSeries(ctx, cfg, s.mgr); err != nil {
			s.logger.Warn("Failed to invalidate cached commits", zap.String("repo", repo.String()), zap.Error(err))
		}
	}

	next := chartCache{repo: repo, darkMode: state.DarkMode}
	html, err := s.chartFragment(ctx, repo, state.DarkMode)
	s.metrics.observeChart(err == nil)
	if err != nil {
		s.logger.Warn("Failed to fetch chart data",
			zap.String("repo", repo.String()),
			zap.Error(err),
		)
		// The last chart stays on the page next to the message
		if cached.html != "" {
			next.repo = cached.repo
			next.html = cached.html
		}
		next.err = ChartUnavailableMessage
	} else {
		next.html = html
	}

	s.mu.Lock()
	s.chart = next
	if state.RefreshChart {
		s.state = view.Reduce(s.state, view.ChartRefreshed{})
	}
	s.mu.Unlock()
}

// chartFragment builds the default window of repo as an embeddable chart.
func (s *Server) chartFragment(ctx context.Context, repo schema.RepoRef, darkMode bool) (template.HTML, error) {
	cfg := s.cfg.CloneWithRange("", "", s.cfg.Days)
	cfg.Repo = repo
	result, _, err := core.GetSeriesResults(core.WithQuiet(ctx), cfg, s.mgr)
	if err != nil {
		return "", err
	}
	fragment, err := chart.RenderFragment(chart.NewDailyChart(result.Repo, result.Points, chart.ThemeFor(darkMode)))
	if err != nil {
		return "", err
	}
	return template.HTML(fragment), nil
}
