package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/pricelens/cache"
	"github.com/raykavin/pricelens/core"
	"github.com/raykavin/pricelens/feed"
	"github.com/raykavin/pricelens/indicator"
	zlogger "github.com/raykavin/pricelens/logger/zerolog"
	"github.com/raykavin/pricelens/notification"
	"github.com/raykavin/pricelens/webapp"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// serveConfig carries the environment configuration of the serve command
type serveConfig struct {
	Port     int
	LogLevel string
	Debug    bool

	Symbol   string
	Interval string
	Limit    int

	CacheTTL  string
	CacheFile string

	Threshold     float64
	ThresholdMin  float64
	ThresholdMax  float64
	ThresholdStep float64

	SMAPeriod int
	EMAPeriod int

	BinanceKey     string
	BinanceSecret  string
	BinanceTestnet bool

	TelegramToken string
	TelegramUsers string

	Simulate string
}

// loadServeConfig reads PRICELENS_* environment variables with defaults
func loadServeConfig() serveConfig {
	viper.SetEnvPrefix("pricelens")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", 8080)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("SYMBOL", "BTCUSDT")
	viper.SetDefault("INTERVAL", "1d")
	viper.SetDefault("LIMIT", 168)
	viper.SetDefault("CACHE_TTL", "5m")
	viper.SetDefault("THRESHOLD", 0.0)
	viper.SetDefault("THRESHOLD_STEP", 100.0)
	viper.SetDefault("SMA_PERIOD", 0)
	viper.SetDefault("EMA_PERIOD", 0)
	viper.SetDefault("BINANCE_TESTNET", false)

	return serveConfig{
		Port:           viper.GetInt("PORT"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
		Debug:          viper.GetBool("DEBUG"),
		Symbol:         viper.GetString("SYMBOL"),
		Interval:       viper.GetString("INTERVAL"),
		Limit:          viper.GetInt("LIMIT"),
		CacheTTL:       viper.GetString("CACHE_TTL"),
		CacheFile:      viper.GetString("CACHE_FILE"),
		Threshold:      viper.GetFloat64("THRESHOLD"),
		ThresholdMin:   viper.GetFloat64("THRESHOLD_MIN"),
		ThresholdMax:   viper.GetFloat64("THRESHOLD_MAX"),
		ThresholdStep:  viper.GetFloat64("THRESHOLD_STEP"),
		SMAPeriod:      viper.GetInt("SMA_PERIOD"),
		EMAPeriod:      viper.GetInt("EMA_PERIOD"),
		BinanceKey:     viper.GetString("BINANCE_API_KEY"),
		BinanceSecret:  viper.GetString("BINANCE_SECRET_KEY"),
		BinanceTestnet: viper.GetBool("BINANCE_TESTNET"),
		TelegramToken:  viper.GetString("TELEGRAM_TOKEN"),
		TelegramUsers:  viper.GetString("TELEGRAM_USERS"),
		Simulate:       viper.GetString("SIMULATE"),
	}
}

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart web application",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := loadServeConfig()

	log, err := zlogger.New(cfg.LogLevel, dateTimeLayout, true, false)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	ttl, err := str2duration.ParseDuration(cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", cfg.CacheTTL, err)
	}

	responseCache, err := buildCache(cfg, ttl)
	if err != nil {
		return fmt.Errorf("failed to open response cache: %w", err)
	}
	defer responseCache.Close()

	feeder := buildFeeder(cfg, log)

	options := []webapp.Option{
		webapp.WithPort(cfg.Port),
		webapp.WithDefaults(webapp.QueryState{
			Symbol:        cfg.Symbol,
			Interval:      cfg.Interval,
			Limit:         cfg.Limit,
			Threshold:     cfg.Threshold,
			ThresholdMin:  cfg.ThresholdMin,
			ThresholdMax:  cfg.ThresholdMax,
			ThresholdStep: cfg.ThresholdStep,
		}),
	}

	if cfg.Debug {
		options = append(options, webapp.WithDebug())
	}
	if indicators := buildIndicators(cfg); len(indicators) > 0 {
		options = append(options, webapp.WithIndicators(indicators...))
	}
	if cfg.Simulate != "" {
		interval, err := str2duration.ParseDuration(cfg.Simulate)
		if err != nil {
			return fmt.Errorf("invalid simulation interval %q: %w", cfg.Simulate, err)
		}
		options = append(options, webapp.WithSimulation(interval))
	}

	// The telegram bot needs the app to read and move the threshold,
	// and the app needs the bot as its notifier, so the bot closes over
	// a late-bound app pointer.
	var app *webapp.App
	telegram, err := buildTelegram(cfg, feeder, log,
		func() float64 {
			if app != nil {
				return app.Threshold()
			}
			return cfg.Threshold
		},
		func(value float64) {
			if app != nil {
				app.SetThreshold(value)
			}
		})
	if err != nil {
		return fmt.Errorf("failed to start telegram bot: %w", err)
	}
	if telegram != nil {
		options = append(options, webapp.WithNotifier(telegram))
	}

	app, err = webapp.NewApp(feeder, responseCache, log, options...)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		return err
	}
	if telegram != nil {
		go telegram.Start()
	}

	return webapp.NewAppServer(app, webapp.NewStandardHTTPServer()).Start()
}

func buildCache(cfg serveConfig, ttl time.Duration) (*cache.ResponseCache, error) {
	if cfg.CacheFile != "" {
		return cache.NewFromFile(cfg.CacheFile, ttl)
	}
	return cache.New(ttl)
}

func buildFeeder(cfg serveConfig, log core.Logger) core.Feeder {
	var feedOptions []feed.Option
	if cfg.BinanceKey != "" && cfg.BinanceSecret != "" {
		feedOptions = append(feedOptions, feed.WithCredentials(cfg.BinanceKey, cfg.BinanceSecret))
	}
	if cfg.BinanceTestnet {
		feedOptions = append(feedOptions, feed.WithTestnet())
	}
	return feed.NewBinance(log, feedOptions...)
}

func buildIndicators(cfg serveConfig) []indicator.Indicator {
	var indicators []indicator.Indicator
	if cfg.SMAPeriod > 0 {
		indicators = append(indicators, indicator.SMA(cfg.SMAPeriod, "#2962ff"))
	}
	if cfg.EMAPeriod > 0 {
		indicators = append(indicators, indicator.EMA(cfg.EMAPeriod, "#e91e63"))
	}
	return indicators
}

func buildTelegram(cfg serveConfig, feeder core.Feeder, log core.Logger,
	getThreshold func() float64, setThreshold func(float64)) (*notification.Telegram, error) {
	if cfg.TelegramToken == "" {
		return nil, nil
	}

	users, err := parseUserIDs(cfg.TelegramUsers)
	if err != nil {
		return nil, err
	}

	return notification.NewTelegram(feeder, notification.Settings{
		Token:  cfg.TelegramToken,
		Users:  users,
		Symbol: cfg.Symbol,
	}, log, notification.WithThreshold(getThreshold, setThreshold))
}

// parseUserIDs splits a comma-separated list of telegram user IDs
func parseUserIDs(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	users := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid telegram user id %q: %w", part, err)
		}
		users = append(users, id)
	}
	return users, nil
}
