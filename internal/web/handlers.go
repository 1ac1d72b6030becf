package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/analytics"
	"github.com/huangsam/repopulse/internal/chart"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/view"
	"github.com/huangsam/repopulse/schema"
)

// MissingFieldsMessage is shown when a submit lacks a field the endpoint needs.
const MissingFieldsMessage = "Message, owner, repository and GitHub token are all required."

// InvalidRepositoryMessage is shown when owner or repository is not a valid GitHub name.
const InvalidRepositoryMessage = "Owner and repository may only contain letters, digits, '-', '_' and '.'."

const htmlContentType = "text/html; charset=utf-8"

func (s *Server) handleIndex(c *gin.Context) {
	s.writePage(c, http.StatusOK)
}

// writePage renders into a buffer first so a template error still yields a clean 500.
func (s *Server) writePage(c *gin.Context, status int) {
	var buf bytes.Buffer
	if err := s.renderPage(c.Request.Context(), &buf); err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to render page")
		return
	}
	c.Data(status, htmlContentType, buf.Bytes())
}

// handleAnalyze reduces the submitted form, asks the analytics endpoint and re-renders the page.
// An empty credential field keeps the credential of the previous submit.
func (s *Server) handleAnalyze(c *gin.Context) {
	events := []view.Event{
		view.FieldChanged{Name: view.FieldMessage, Value: strings.TrimSpace(c.PostForm(view.FieldMessage))},
		view.FieldChanged{Name: view.FieldOwner, Value: strings.TrimSpace(c.PostForm(view.FieldOwner))},
		view.FieldChanged{Name: view.FieldRepo, Value: strings.TrimSpace(c.PostForm(view.FieldRepo))},
	}
	if pat := strings.TrimSpace(c.PostForm(view.FieldCredential)); pat != "" {
		events = append(events, view.FieldChanged{Name: view.FieldCredential, Value: pat})
	}
	events = append(events, view.SubmitStarted{})
	state := s.reduce(events...)

	cfg := s.cfg.Clone()
	cfg.Repo = state.Form.RepoRef()
	if state.Form.Owner != "" && state.Form.Repo != "" {
		if _, err := schema.NewRepoRef(state.Form.Owner, state.Form.Repo); err != nil {
			s.metrics.observeAnalytics(outcomeInvalid)
			s.reduce(view.SubmitFailed{Message: InvalidRepositoryMessage})
			s.writePage(c, http.StatusOK)
			return
		}
	}
	cfg.Message = state.Form.Message
	if state.Form.Credential != "" {
		cfg.GitHubToken = state.Form.Credential
	}

	result, err := core.GetAskResult(c.Request.Context(), cfg, s.mgr, s.client, func(int) {
		s.reduce(view.Tick{})
	})
	switch {
	case err == nil:
		s.metrics.observeAnalytics(outcomeOK)
		s.reduce(view.SubmitSucceeded{Explanation: result.Response.Explanation})
	case errors.Is(err, analytics.ErrInvalidRequest), errors.Is(err, core.ErrNoRepository), errors.Is(err, core.ErrNoMessage):
		s.metrics.observeAnalytics(outcomeInvalid)
		s.reduce(view.SubmitFailed{Message: MissingFieldsMessage})
	default:
		s.metrics.observeAnalytics(outcomeFailed)
		s.logger.Warn("Analytics request failed",
			zap.String("repo", cfg.Repo.String()),
			zap.Duration("elapsed", result.Elapsed),
			zap.Error(err),
		)
		s.reduce(view.SubmitFailed{})
	}
	s.writePage(c, http.StatusOK)
}

// handleDarkMode toggles the theme, or sets it when the form carries "enabled".
func (s *Server) handleDarkMode(c *gin.Context) {
	var event view.Event = view.DarkModeToggled{}
	if raw, ok := c.GetPostForm("enabled"); ok {
		enabled, err := view.ParseDarkMode(raw)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		event = view.DarkModeSet{Enabled: enabled}
	}

	s.mu.Lock()
	next, err := s.prefs.Apply(s.state, event)
	s.state = next
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("Failed to persist dark mode preference", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// seriesConfig reads owner, repo, start, end, days and fill_gaps from the query.
// Without start, end or days the configured window applies.
func (s *Server) seriesConfig(c *gin.Context) (*contract.Config, error) {
	now := time.Now()
	start, err := contract.ParseDateBound(c.Query("start"), now)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	end, err := contract.ParseDateBound(c.Query("end"), now)
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}

	days := s.cfg.Days
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 0 {
			return nil, fmt.Errorf("invalid days %q. Expected a non-negative integer", raw)
		}
	}

	cfg := s.cfg.CloneWithRange(start, end, days)
	owner, name := strings.TrimSpace(c.Query("owner")), strings.TrimSpace(c.Query("repo"))
	if owner == "" || name == "" {
		return nil, core.ErrNoRepository
	}
	if cfg.Repo, err = schema.NewRepoRef(owner, name); err != nil {
		return nil, err
	}
	if raw := c.Query("fill_gaps"); raw != "" {
		fill, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid fill_gaps %q", raw)
		}
		cfg.FillGaps = fill
	}
	return cfg, nil
}

// handleSeries returns the daily series as JSON.
func (s *Server) handleSeries(c *gin.Context) {
	cfg, err := s.seriesConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, _, err := core.GetSeriesResults(core.WithQuiet(c.Request.Context()), cfg, s.mgr)
	if err != nil {
		s.logger.Warn("Failed to build series", zap.String("repo", cfg.Repo.String()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": ChartUnavailableMessage})
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleChart renders the daily series as a standalone chart page in the current theme.
func (s *Server) handleChart(c *gin.Context) {
	cfg, err := s.seriesConfig(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	result, _, err := core.GetSeriesResults(core.WithQuiet(c.Request.Context()), cfg, s.mgr)
	s.metrics.observeChart(err == nil)
	if err != nil {
		s.logger.Warn("Failed to build series", zap.String("repo", cfg.Repo.String()), zap.Error(err))
		c.String(http.StatusBadGateway, ChartUnavailableMessage)
		return
	}

	var buf bytes.Buffer
	line := chart.NewDailyChart(result.Repo, result.Points, chart.ThemeFor(s.State().DarkMode))
	if err := chart.RenderPage(&buf, line); err != nil {
		s.logger.Error("Failed to render chart", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to render chart")
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}
