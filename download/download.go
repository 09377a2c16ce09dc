// Package download fetches historical klines in batches and archives
// them to CSV files or the sqlite kline store.
package download

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/pricelens/core"
)

const batchSize = 500

var csvHeaders = []string{"time", "open", "close", "low", "high", "volume"}

// Downloader pulls candle history from a feed in fixed-size batches.
type Downloader struct {
	feeder core.Feeder
	log    core.Logger
}

// NewDownloader creates a downloader backed by the given feed.
func NewDownloader(feeder core.Feeder, log core.Logger) Downloader {
	return Downloader{feeder: feeder, log: log}
}

// Parameters defines the time range and the sinks for a download.
type Parameters struct {
	Start   time.Time
	End     time.Time
	CSVPath string
	Storage core.KlineStorage
}

// Option is a function type for configuring download parameters
type Option func(*Parameters)

// WithInterval sets specific start and end times for the download
func WithInterval(start, end time.Time) Option {
	return func(parameters *Parameters) {
		parameters.Start = start
		parameters.End = end
	}
}

// WithDays sets the download period to a specific number of days from now
func WithDays(days int) Option {
	return func(parameters *Parameters) {
		parameters.Start = time.Now().AddDate(0, 0, -days)
		parameters.End = time.Now()
	}
}

// WithCSV writes the downloaded candles to a CSV file.
func WithCSV(path string) Option {
	return func(parameters *Parameters) {
		parameters.CSVPath = path
	}
}

// WithStorage archives the downloaded candles to a kline store.
func WithStorage(storage core.KlineStorage) Option {
	return func(parameters *Parameters) {
		parameters.Storage = storage
	}
}

// Download fetches the candle history for a symbol and writes it to the
// configured sinks. It returns a report suitable for printing.
func (d Downloader) Download(ctx context.Context, symbol, timeframe string, options ...Option) (*Report, error) {
	parameters := initializeParameters()
	for _, option := range options {
		option(parameters)
	}
	normalizeTimeParameters(parameters)

	if parameters.CSVPath == "" && parameters.Storage == nil {
		return nil, fmt.Errorf("no output configured, use WithCSV or WithStorage")
	}

	candleCount, interval, err := calculateCandleCount(parameters.Start, parameters.End, timeframe)
	if err != nil {
		return nil, err
	}
	candleCount++

	d.log.Infof("Downloading %d candles of %s for %s", candleCount, timeframe, symbol)

	var writer *csv.Writer
	if parameters.CSVPath != "" {
		recordFile, err := os.Create(parameters.CSVPath)
		if err != nil {
			return nil, err
		}
		defer recordFile.Close()

		writer = csv.NewWriter(recordFile)
		if err := writer.Write(csvHeaders); err != nil {
			return nil, err
		}
	}

	progressBar := progressbar.Default(int64(candleCount))

	report := newReport(symbol, timeframe)
	missingCandles := 0

	for batchStart := parameters.Start; batchStart.Before(parameters.End); batchStart = batchStart.Add(interval * batchSize) {
		batchEnd := calculateBatchEnd(batchStart, interval, parameters.End)
		isLastBatch := batchEnd.Equal(parameters.End)

		candles, err := d.feeder.KlinesByPeriod(ctx, symbol, timeframe, batchStart, batchEnd)
		if err != nil {
			return nil, err
		}

		if writer != nil {
			for _, candle := range candles {
				if err := writer.Write(candle.ToSlice(2)); err != nil {
					return nil, err
				}
			}
		}

		if parameters.Storage != nil {
			if err := parameters.Storage.SaveCandles(ctx, candles); err != nil {
				return nil, err
			}
		}

		report.add(candles)

		if !isLastBatch && len(candles) < batchSize {
			missingCandles += batchSize - len(candles)
		}

		if err := progressBar.Add(len(candles)); err != nil {
			d.log.Warnf("Failed to update progress bar: %s", err.Error())
		}
	}

	if err := progressBar.Close(); err != nil {
		d.log.Warnf("Failed to close progress bar: %s", err.Error())
	}

	if missingCandles > 0 {
		d.log.Warnf("%d missing candles", missingCandles)
	}
	report.Missing = missingCandles

	if writer != nil {
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, err
		}
	}

	d.log.Info("Done!")
	return report, nil
}

// calculateCandleCount determines the number of candles in the given timeframe
func calculateCandleCount(start, end time.Time, timeframe string) (int, time.Duration, error) {
	totalDuration := end.Sub(start)
	interval, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		return 0, 0, err
	}
	return int(totalDuration / interval), interval, nil
}

// initializeParameters creates default parameters for the last month
func initializeParameters() *Parameters {
	now := time.Now()
	return &Parameters{
		Start: now.AddDate(0, -1, 0),
		End:   now,
	}
}

// normalizeTimeParameters adjusts time parameters to day boundaries
func normalizeTimeParameters(parameters *Parameters) {
	parameters.Start = time.Date(
		parameters.Start.Year(),
		parameters.Start.Month(),
		parameters.Start.Day(),
		0, 0, 0, 0, time.UTC,
	)

	now := time.Now()
	if now.Sub(parameters.End) > 0 {
		parameters.End = time.Date(
			parameters.End.Year(),
			parameters.End.Month(),
			parameters.End.Day(),
			0, 0, 0, 0, time.UTC,
		)
	} else {
		parameters.End = now
	}
}

// calculateBatchEnd determines the end time for a batch
func calculateBatchEnd(batchStart time.Time, interval time.Duration, totalEnd time.Time) time.Time {
	potentialEnd := batchStart.Add(interval * batchSize)

	// Subtract 1 second to avoid overlapping with next batch's start
	if potentialEnd.Before(totalEnd) {
		return potentialEnd.Add(-1 * time.Second)
	}

	return totalEnd
}
