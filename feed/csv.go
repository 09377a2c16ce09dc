package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/pricelens/core"
)

// CSV column order, matching the files written by the download command.
var csvColumns = map[string]int{
	"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
}

// CSVFeed serves candles from a downloaded CSV archive. It implements
// core.Feeder so the web app can run against offline data, replaying
// the file through the kline subscription.
type CSVFeed struct {
	symbol      string
	interval    string
	candles     []core.Candle
	replayDelay time.Duration
}

// CSVOption configures a CSVFeed.
type CSVOption func(*CSVFeed)

// WithReplayDelay paces the kline subscription, emitting one candle per
// delay instead of flushing the file at once.
func WithReplayDelay(delay time.Duration) CSVOption {
	return func(f *CSVFeed) {
		f.replayDelay = delay
	}
}

// NewCSVFeed loads a candle archive for a single symbol and timeframe.
func NewCSVFeed(symbol, interval, file string, options ...CSVOption) (*CSVFeed, error) {
	candles, err := readCandlesFromCSV(symbol, interval, file)
	if err != nil {
		return nil, fmt.Errorf("failed to load csv feed: %w", err)
	}

	feed := &CSVFeed{
		symbol:   symbol,
		interval: interval,
		candles:  candles,
	}
	for _, option := range options {
		option(feed)
	}
	return feed, nil
}

// Resample aggregates the loaded candles into a coarser timeframe. The
// target must be a multiple of the source interval and align with UTC
// boundaries, e.g. 1h candles into 4h or 1d.
func (f *CSVFeed) Resample(target string) error {
	targetDuration, err := str2duration.ParseDuration(target)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrInvalidInterval, target)
	}

	sourceDuration, err := str2duration.ParseDuration(f.interval)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrInvalidInterval, f.interval)
	}

	if targetDuration <= sourceDuration {
		return nil
	}

	var resampled []core.Candle
	for _, candle := range f.candles {
		bucket := candle.Time.Truncate(targetDuration)

		if n := len(resampled); n > 0 && resampled[n-1].Time.Equal(bucket) {
			current := &resampled[n-1]
			current.High = math.Max(current.High, candle.High)
			current.Low = math.Min(current.Low, candle.Low)
			current.Close = candle.Close
			current.Volume += candle.Volume
			continue
		}

		candle.Time = bucket
		candle.Interval = target
		resampled = append(resampled, candle)
	}

	f.interval = target
	f.candles = resampled
	return nil
}

// LastQuote returns the closing price of the newest loaded candle.
func (f *CSVFeed) LastQuote(_ context.Context, _ string) (float64, error) {
	if len(f.candles) == 0 {
		return 0, core.ErrInsufficientData
	}
	return f.candles[len(f.candles)-1].Close, nil
}

// KlinesByLimit returns the newest limit candles from the archive.
func (f *CSVFeed) KlinesByLimit(_ context.Context, symbol, _ string, limit int) ([]core.Candle, error) {
	if len(f.candles) < limit {
		return nil, fmt.Errorf("%w: %s", core.ErrInsufficientData, symbol)
	}
	return f.candles[len(f.candles)-limit:], nil
}

// KlinesByPeriod returns archived candles within the given time range.
func (f *CSVFeed) KlinesByPeriod(_ context.Context, _, _ string, start, end time.Time) ([]core.Candle, error) {
	return lo.Filter(f.candles, func(candle core.Candle, _ int) bool {
		return !candle.Time.Before(start) && !candle.Time.After(end)
	}), nil
}

// KlineSubscription replays the archive through a channel, one candle
// per replay delay. Both channels close when the file is exhausted or
// the context is canceled.
func (f *CSVFeed) KlineSubscription(ctx context.Context, _, _ string) (chan core.Candle, chan error) {
	ccandle := make(chan core.Candle)
	cerr := make(chan error)

	go func() {
		defer close(ccandle)
		defer close(cerr)

		for _, candle := range f.candles {
			if f.replayDelay > 0 {
				select {
				case <-time.After(f.replayDelay):
				case <-ctx.Done():
					return
				}
			}

			select {
			case ccandle <- candle:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ccandle, cerr
}

// readCandlesFromCSV parses a download archive into candles. The header
// row is optional; without one the default column order applies.
func readCandlesFromCSV(symbol, interval, file string) ([]core.Candle, error) {
	csvFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	rows, err := csv.NewReader(csvFile).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) > 0 {
		// A non-numeric first cell means a header row.
		if _, err := strconv.Atoi(rows[0][0]); err != nil {
			rows = rows[1:]
		}
	}

	candles := make([]core.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseCandleRow(symbol, interval, row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

func parseCandleRow(symbol, interval string, row []string) (core.Candle, error) {
	if len(row) < len(csvColumns) {
		return core.Candle{}, fmt.Errorf("short csv row: %d columns", len(row))
	}

	timestamp, err := strconv.ParseInt(row[csvColumns["time"]], 10, 64)
	if err != nil {
		return core.Candle{}, err
	}

	candle := core.Candle{
		Symbol:   symbol,
		Interval: interval,
		Time:     time.Unix(timestamp, 0).UTC(),
		Complete: true,
	}

	if candle.Open, err = strconv.ParseFloat(row[csvColumns["open"]], 64); err != nil {
		return core.Candle{}, err
	}
	if candle.Close, err = strconv.ParseFloat(row[csvColumns["close"]], 64); err != nil {
		return core.Candle{}, err
	}
	if candle.Low, err = strconv.ParseFloat(row[csvColumns["low"]], 64); err != nil {
		return core.Candle{}, err
	}
	if candle.High, err = strconv.ParseFloat(row[csvColumns["high"]], 64); err != nil {
		return core.Candle{}, err
	}
	if candle.Volume, err = strconv.ParseFloat(row[csvColumns["volume"]], 64); err != nil {
		return core.Candle{}, err
	}

	return candle, nil
}
