// Package webapp serves the interactive price chart: a cached price
// API proxied to the upstream feed, the chart page itself, and a
// websocket endpoint that runs one overlay session per connected
// browser.
package webapp

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/raykavin/pricelens/cache"
	"github.com/raykavin/pricelens/chart"
	"github.com/raykavin/pricelens/core"
	"github.com/raykavin/pricelens/indicator"
)

// Static assets embedded in the binary
var (
	//go:embed assets
	staticFiles embed.FS
)

// App handles the chart web application
type App struct {
	sync.Mutex
	port               int
	debug              bool
	defaults           QueryState
	series             []chart.Point
	threshold          float64
	indicators         []indicator.Indicator
	scriptContent      string
	indexHTML          *template.Template
	lastUpdate         time.Time
	log                core.Logger
	feeder             core.Feeder
	cache              *cache.ResponseCache
	notifier           core.Notifier
	sessions           *SessionManager
	simulationInterval time.Duration
}

// Option defines a function type for configuring an App instance
type Option func(*App)

// WithPort sets the HTTP server port
func WithPort(port int) Option {
	return func(app *App) {
		app.port = port
	}
}

// WithDebug enables debug mode (disables minification)
func WithDebug() Option {
	return func(app *App) {
		app.debug = true
	}
}

// WithDefaults sets the page state used when the URL carries none.
func WithDefaults(defaults QueryState) Option {
	return func(app *App) {
		app.defaults = defaults
	}
}

// WithNotifier enables threshold crossing alerts through the notifier.
func WithNotifier(notifier core.Notifier) Option {
	return func(app *App) {
		app.notifier = notifier
	}
}

// WithIndicators adds server-side indicators to the chart
func WithIndicators(indicators ...indicator.Indicator) Option {
	return func(app *App) {
		app.indicators = indicators
	}
}

// WithSimulation enables real-time candle simulation for testing
func WithSimulation(interval time.Duration) Option {
	return func(app *App) {
		app.simulationInterval = interval
	}
}

// NewApp creates a new chart application with the provided options
func NewApp(feeder core.Feeder, responseCache *cache.ResponseCache, log core.Logger, options ...Option) (*App, error) {
	app := &App{
		port:   8080,
		log:    log,
		feeder: feeder,
		cache:  responseCache,
		defaults: QueryState{
			Symbol:        "BTCUSDT",
			Interval:      "1d",
			Limit:         168,
			ThresholdStep: 100,
		},
	}

	// Apply all options
	for _, option := range options {
		option(app)
	}
	app.threshold = app.defaults.Threshold

	// Parse chart HTML template
	var err error
	app.indexHTML, err = template.ParseFS(staticFiles, "assets/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart template: %w", err)
	}

	// Read and transpile chart JavaScript
	chartJS, err := staticFiles.ReadFile("assets/js/main.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read main.js: %w", err)
	}

	transpiled := api.Transform(string(chartJS), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		MinifySyntax:      !app.debug,
		MinifyIdentifiers: !app.debug,
		MinifyWhitespace:  !app.debug,
	})
	if len(transpiled.Errors) > 0 {
		return nil, fmt.Errorf("chart script failed with: %v", transpiled.Errors)
	}
	app.scriptContent = string(transpiled.Code)

	app.sessions = NewSessionManager(log, app)

	return app, nil
}

// Port returns the configured port
func (a *App) Port() int {
	return a.port
}

// Defaults returns the configured default page state.
func (a *App) Defaults() QueryState {
	return a.defaults
}

// RegisterHandlers registers all necessary handlers on the HTTP server
func (a *App) RegisterHandlers(server HTTPServer) {
	server.RegisterFileServer("/assets/", http.FS(staticFiles))
	server.RegisterHandler("/assets/chart.js", a.handleScript)

	server.RegisterHandler("/api/btc-price", a.handlePrice)
	server.RegisterHandler("/api/cache/stats", a.handleCacheStats)
	server.RegisterHandler("/api/cache/clear", a.handleCacheClear)
	server.RegisterHandler("/health", a.handleHealth)
	server.RegisterHandler("/ws", a.sessions.HandleWebSocket)
	server.RegisterHandler("/", a.handleIndex)
}

// Run loads the initial series and follows the live kline stream until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	candles, err := a.feeder.KlinesByLimit(ctx, a.defaults.Symbol, a.defaults.Interval, a.defaults.Limit)
	if err != nil {
		return fmt.Errorf("failed to load initial series: %w", err)
	}

	a.Lock()
	a.series = pointsFromCandles(candles)
	a.lastUpdate = time.Now()
	a.Unlock()

	candleChan, errChan := a.feeder.KlineSubscription(ctx, a.defaults.Symbol, a.defaults.Interval)
	go func() {
		for {
			select {
			case candle, ok := <-candleChan:
				if !ok {
					return
				}
				a.OnCandle(candle)
			case err, ok := <-errChan:
				if !ok {
					return
				}
				if err != nil {
					a.log.WithError(err).Error("kline stream error")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// OnCandle folds a live candle into the series and fans the update out
// to every chart session. Partial candles replace the forming point in
// place.
func (a *App) OnCandle(candle core.Candle) {
	if candle.IsEmpty() {
		return
	}
	point := candle.PricePoint()

	a.Lock()
	var prev float64
	if n := len(a.series); n > 0 {
		prev = a.series[n-1].Price
	}

	if n := len(a.series); n > 0 && a.series[n-1].Timestamp == point.Timestamp {
		a.series[n-1] = chart.Point{Timestamp: point.Timestamp, Price: point.Price}
	} else {
		a.series = append(a.series, chart.Point{Timestamp: point.Timestamp, Price: point.Price})
	}
	a.lastUpdate = time.Now()
	threshold := a.threshold
	a.Unlock()

	a.sessions.BroadcastPoint(point)
	a.checkThreshold(prev, point.Price, threshold)
}

// checkThreshold notifies when the live price crosses the configured
// threshold in either direction.
func (a *App) checkThreshold(prev, current, threshold float64) {
	if a.notifier == nil || threshold <= 0 || prev == 0 || prev == current {
		return
	}

	crossedUp := prev < threshold && current >= threshold
	crossedDown := prev > threshold && current <= threshold
	if !crossedUp && !crossedDown {
		return
	}

	direction := "above"
	if crossedDown {
		direction = "below"
	}
	a.notifier.Notify(fmt.Sprintf("%s crossed %s %.2f (now %.2f)",
		a.defaults.Symbol, direction, threshold, current))
}

// SetThreshold moves the alert threshold, e.g. after the user drags the
// threshold line.
func (a *App) SetThreshold(value float64) {
	a.Lock()
	a.threshold = value
	a.Unlock()
}

// Threshold returns the current alert threshold.
func (a *App) Threshold() float64 {
	a.Lock()
	defer a.Unlock()
	return a.threshold
}

// Series returns a copy of the active price series.
func (a *App) Series() []chart.Point {
	a.Lock()
	defer a.Unlock()

	series := make([]chart.Point, len(a.series))
	copy(series, a.series)
	return series
}

// IndicatorMetrics computes the configured indicators over the active
// series.
func (a *App) IndicatorMetrics() []indicator.Metric {
	series := a.Series()

	metrics := make([]indicator.Metric, 0, len(a.indicators))
	a.Lock()
	defer a.Unlock()
	for _, ind := range a.indicators {
		ind.Load(series)
		metrics = append(metrics, ind.Metrics()...)
	}
	return metrics
}

// pointsFromCandles converts feed candles to chart points.
func pointsFromCandles(candles []core.Candle) []chart.Point {
	points := make([]chart.Point, len(candles))
	for i, c := range candles {
		points[i] = chart.Point{Timestamp: c.Time.UnixMilli(), Price: c.Close}
	}
	return points
}
