// Package chart draws the daily commit series as an ECharts line chart.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/huangsam/repopulse/schema"
)

// Theme represents a color theme for the chart.
type Theme string

const (
	// ThemeLight is the light color theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark color theme.
	ThemeDark Theme = "dark"
)

// SeriesName labels the commit line.
const SeriesName = "Commits"

// AssetsHost serves echarts.min.js for pages embedding a fragment.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// palette holds the theme-specific chart colors.
type palette struct {
	background string
	text       string
	textMuted  string
	axis       string
	grid       string
	line       string
	echarts    string
}

var lightPalette = palette{
	background: "transparent",
	text:       "#44403c", // stone-700
	textMuted:  "#78716c", // stone-500
	axis:       "#a8a29e", // stone-400
	grid:       "#e7e5e4", // stone-200
	line:       "#8884d8",
}

var darkPalette = palette{
	background: "transparent",
	text:       "#d6d3d1", // stone-300
	textMuted:  "#a8a29e", // stone-400
	axis:       "#57534e", // stone-600
	grid:       "#44403c", // stone-700
	line:       "#a5b4fc", // indigo-300
	echarts:    "dark",
}

// ThemeFor maps the dark-mode flag to a theme.
func ThemeFor(darkMode bool) Theme {
	if darkMode {
		return ThemeDark
	}
	return ThemeLight
}

func paletteFor(theme Theme) palette {
	if theme == ThemeDark {
		return darkPalette
	}
	return lightPalette
}

// NewDailyChart builds a line chart with one point per entry of points, in the given order.
func NewDailyChart(repo schema.RepoRef, points []schema.DailyCount, theme Theme) *charts.Line {
	p := paletteFor(theme)

	labels := make([]string, len(points))
	data := make([]opts.LineData, len(points))
	for i, dc := range points {
		labels[i] = dc.Date
		data[i] = opts.LineData{Value: dc.Count}
	}

	subtitle := "No commits in range"
	if len(points) > 0 {
		subtitle = fmt.Sprintf("%s to %s", points[0].Date, points[len(points)-1].Date)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           "100%",
			Height:          "400px",
			BackgroundColor: p.background,
			Theme:           p.echarts,
			AssetsHost:      AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         "Commit activity of " + repo.String(),
			Subtitle:      subtitle,
			Left:          "center",
			TitleStyle:    &opts.TextStyle{Color: p.text},
			SubtitleStyle: &opts.TextStyle{Color: p.textMuted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Date",
			AxisLabel: &opts.AxisLabel{Color: p.textMuted},
			AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: p.axis}},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "Commits",
			AxisLabel: &opts.AxisLabel{Color: p.textMuted},
			AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: p.axis}},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: p.grid}},
		}),
		charts.WithGridOpts(opts.Grid{Top: "20%", Bottom: "10%", Left: "5%", Right: "5%", ContainLabel: opts.Bool(true)}),
	)
	line.SetXAxis(labels)
	line.AddSeries(SeriesName, data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false), ShowSymbol: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: p.line}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: p.line, Width: 2}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.15)}),
	)
	return line
}

// RenderPage writes the chart as a standalone HTML page.
func RenderPage(w io.Writer, line *charts.Line) error {
	if err := line.Render(w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// RenderFragment returns the chart container and script without the surrounding page.
// The embedding page must load echarts.min.js from AssetsHost.
func RenderFragment(line *charts.Line) (string, error) {
	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("rendering chart: %w", err)
	}
	return extractChartContent(buf.String()), nil
}

// extractChartContent cuts the chart div and script out of a full echarts page.
func extractChartContent(html string) string {
	start := strings.Index(html, `<div class="container">`)
	if start == -1 {
		return html
	}
	end := strings.Index(html, `</body>`)
	if end == -1 || end < start {
		return html
	}
	content := html[start:end]
	return strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)
}
