package download

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricelens/core"
	zlogger "github.com/raykavin/pricelens/logger/zerolog"
)

type stubFeeder struct {
	candles []core.Candle
}

func (f *stubFeeder) LastQuote(context.Context, string) (float64, error) { return 0, nil }

func (f *stubFeeder) KlinesByLimit(context.Context, string, string, int) ([]core.Candle, error) {
	return f.candles, nil
}

func (f *stubFeeder) KlinesByPeriod(_ context.Context, _, _ string, start, end time.Time) ([]core.Candle, error) {
	var out []core.Candle
	for _, c := range f.candles {
		if !c.Time.Before(start) && !c.Time.After(end) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *stubFeeder) KlineSubscription(context.Context, string, string) (chan core.Candle, chan error) {
	return make(chan core.Candle), make(chan error)
}

type recordingStorage struct {
	saved []core.Candle
}

func (s *recordingStorage) SaveCandles(_ context.Context, candles []core.Candle) error {
	s.saved = append(s.saved, candles...)
	return nil
}

func (s *recordingStorage) Candles(context.Context, string, string, time.Time, time.Time) ([]core.Candle, error) {
	return s.saved, nil
}

func testLogger() core.Logger {
	l := zerolog.Nop()
	return zlogger.NewAdapter(&l)
}

func dailyCandles(start time.Time, closes ...float64) []core.Candle {
	candles := make([]core.Candle, len(closes))
	for i, close := range closes {
		candles[i] = core.Candle{
			Symbol:   "BTCUSDT",
			Interval: "1d",
			Time:     start.Add(time.Duration(i) * 24 * time.Hour),
			Open:     close - 10,
			Close:    close,
			Low:      close - 20,
			High:     close + 20,
			Volume:   1000,
			Complete: true,
		}
	}
	return candles
}

func TestDownloader_WritesCSVAndArchive(t *testing.T) {
	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	feeder := &stubFeeder{candles: dailyCandles(start, 42000, 42500, 42250)}
	storage := &recordingStorage{}
	outputPath := filepath.Join(t.TempDir(), "btc.csv")

	downloader := NewDownloader(feeder, testLogger())
	report, err := downloader.Download(context.Background(), "BTCUSDT", "1d",
		WithInterval(start, start.Add(72*time.Hour)),
		WithCSV(outputPath),
		WithStorage(storage),
	)
	require.NoError(t, err)

	require.Equal(t, 3, report.Candles)
	require.Equal(t, 0, report.Missing)
	require.Equal(t, start, report.First)
	require.Equal(t, start.Add(48*time.Hour), report.Last)
	require.Len(t, storage.saved, 3)

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, csvHeaders, rows[0])
	require.Equal(t, "42000.00", rows[1][2])
	require.Equal(t, "42500.00", rows[2][2])
}

func TestDownloader_RequiresAnOutput(t *testing.T) {
	downloader := NewDownloader(&stubFeeder{}, testLogger())
	_, err := downloader.Download(context.Background(), "BTCUSDT", "1d")
	require.ErrorContains(t, err, "no output configured")
}

func TestDownloader_RejectsBadTimeframe(t *testing.T) {
	downloader := NewDownloader(&stubFeeder{}, testLogger())
	_, err := downloader.Download(context.Background(), "BTCUSDT", "nope",
		WithCSV(filepath.Join(t.TempDir(), "out.csv")))
	require.Error(t, err)
}

func TestReport_Returns(t *testing.T) {
	report := newReport("BTCUSDT", "1d")
	report.add(dailyCandles(time.Now().UTC(), 100, 110, 99))

	returns := report.Returns()
	require.Len(t, returns, 2)
	require.InDelta(t, 10, returns[0], 1e-9)
	require.InDelta(t, -10, returns[1], 1e-9)
}

func TestReport_StringSummarizesSeries(t *testing.T) {
	report := newReport("BTCUSDT", "1d")
	report.add(dailyCandles(time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), 100, 150, 120))

	summary := report.String()
	require.Contains(t, summary, "BTCUSDT")
	require.Contains(t, summary, "2023-11-01")
	require.Contains(t, summary, "2023-11-03")
	require.Contains(t, summary, "150.00")
	require.Contains(t, summary, "20.00%")
}

func TestReport_PrintHistogram(t *testing.T) {
	report := newReport("BTCUSDT", "1d")
	report.add(dailyCandles(time.Now().UTC(), 100, 101, 103, 102, 105))

	var buf bytes.Buffer
	require.NoError(t, report.PrintHistogram(&buf))
	require.NotEmpty(t, buf.String())

	empty := newReport("BTCUSDT", "1d")
	buf.Reset()
	require.NoError(t, empty.PrintHistogram(&buf))
	require.Empty(t, buf.String())
}
