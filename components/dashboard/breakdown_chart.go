package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	defaultChartHeight   = "320px"
	defaultChartCacheTTL = 5 * time.Minute
)

// BreakdownChart is one rendered distribution chart.
type BreakdownChart struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// ChartRenderer turns a distribution into embeddable chart HTML.
type ChartRenderer interface {
	RenderBreakdown(key, title string, entries []BreakdownEntry) (BreakdownChart, error)
}

// EChartsRenderer renders bar charts server side with go-echarts. The output
// is a complete HTML document meant for an iframe srcdoc.
type EChartsRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
	height     string
}

// EChartsOption customizes the renderer.
type EChartsOption func(*EChartsRenderer)

// WithChartCache injects a render cache; nil disables caching.
func WithChartCache(cache RenderCache) EChartsOption {
	return func(r *EChartsRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the chart theme (defaults to Westeros).
func WithChartTheme(theme string) EChartsOption {
	return func(r *EChartsRenderer) {
		if theme = strings.TrimSpace(theme); theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a
// self-hosted location instead of the go-echarts default CDN.
func WithChartAssetsHost(host string) EChartsOption {
	return func(r *EChartsRenderer) {
		r.assetsHost = ensureTrailingSlash(strings.TrimSpace(host))
	}
}

// NewEChartsRenderer builds a bar chart renderer.
func NewEChartsRenderer(options ...EChartsOption) *EChartsRenderer {
	r := &EChartsRenderer{
		cache:  NewChartCache(defaultChartCacheTTL),
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// RenderBreakdown renders entries as a single-series bar chart. An empty
// distribution yields an empty chart and no error.
func (r *EChartsRenderer) RenderBreakdown(key, title string, entries []BreakdownEntry) (BreakdownChart, error) {
	chart := BreakdownChart{Key: key, Title: title}
	if len(entries) == 0 {
		return chart, nil
	}
	render := func() (string, error) {
		return r.renderBar(title, entries)
	}
	var (
		html string
		err  error
	)
	if r.cache != nil {
		cacheKey := fmt.Sprintf("%s:%s:%s", key, r.theme, contentHash(struct {
			Title   string
			Entries []BreakdownEntry
		}{title, entries}))
		html, err = r.cache.GetOrRender(cacheKey, render)
	} else {
		html, err = render()
	}
	if err != nil {
		return BreakdownChart{}, fmt.Errorf("dashboard: render %s chart: %w", key, err)
	}
	chart.HTML = html
	return chart, nil
}

func (r *EChartsRenderer) renderBar(title string, entries []BreakdownEntry) (string, error) {
	labels := make([]string, len(entries))
	data := make([]opts.BarData, len(entries))
	for i, entry := range entries {
		labels[i] = entry.Label
		data[i] = opts.BarData{Name: entry.Label, Value: entry.Count}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(title)...)
	bar.SetXAxis(labels)
	bar.AddSeries(title, data)
	return renderChart(bar)
}

func (r *EChartsRenderer) globalOptions(title string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func ensureTrailingSlash(value string) string {
	if value == "" || strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
