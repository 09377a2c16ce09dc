package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricelens/core"
)

func writeArchive(t *testing.T, rows string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "btc.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))
	return path
}

const hourlyArchive = `time,open,close,low,high,volume
1700000000,100.00,101.00,99.00,102.00,10.00
1700003600,101.00,103.00,100.00,104.00,12.00
1700007200,103.00,102.00,101.00,105.00,8.00
`

func TestCSVFeed_LoadsArchive(t *testing.T) {
	feed, err := NewCSVFeed("BTCUSDT", "1h", writeArchive(t, hourlyArchive))
	require.NoError(t, err)

	candles, err := feed.KlinesByLimit(context.Background(), "BTCUSDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	require.Equal(t, "BTCUSDT", candles[0].Symbol)
	require.Equal(t, time.Unix(1700003600, 0).UTC(), candles[0].Time)
	require.InDelta(t, 103, candles[0].Close, 1e-9)
	require.True(t, candles[0].Complete)

	quote, err := feed.LastQuote(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.InDelta(t, 102, quote, 1e-9)
}

func TestCSVFeed_HeaderRowOptional(t *testing.T) {
	noHeader := "1700000000,100.00,101.00,99.00,102.00,10.00\n"
	feed, err := NewCSVFeed("BTCUSDT", "1h", writeArchive(t, noHeader))
	require.NoError(t, err)

	candles, err := feed.KlinesByLimit(context.Background(), "BTCUSDT", "1h", 1)
	require.NoError(t, err)
	require.Len(t, candles, 1)
}

func TestCSVFeed_LimitBeyondArchive(t *testing.T) {
	feed, err := NewCSVFeed("BTCUSDT", "1h", writeArchive(t, hourlyArchive))
	require.NoError(t, err)

	_, err = feed.KlinesByLimit(context.Background(), "BTCUSDT", "1h", 10)
	require.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestCSVFeed_KlinesByPeriod(t *testing.T) {
	feed, err := NewCSVFeed("BTCUSDT", "1h", writeArchive(t, hourlyArchive))
	require.NoError(t, err)

	start := time.Unix(1700003600, 0).UTC()
	candles, err := feed.KlinesByPeriod(context.Background(), "BTCUSDT", "1h", start, start)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	require.InDelta(t, 103, candles[0].Close, 1e-9)
}

func TestCSVFeed_Resample(t *testing.T) {
	feed, err := NewCSVFeed("BTCUSDT", "1h", writeArchive(t, hourlyArchive))
	require.NoError(t, err)
	require.NoError(t, feed.Resample("2h"))

	// The first two candles fall at 22:13 and 23:13 UTC, inside the
	// same 2h bucket, while the third opens a new bucket past midnight.
	candles, err := feed.KlinesByPeriod(context.Background(), "BTCUSDT", "2h",
		time.Unix(0, 0), time.Now())
	require.NoError(t, err)
	require.Len(t, candles, 2)

	merged := candles[0]
	require.Equal(t, "2h", merged.Interval)
	require.InDelta(t, 100, merged.Open, 1e-9)
	require.InDelta(t, 103, merged.Close, 1e-9)
	require.InDelta(t, 104, merged.High, 1e-9)
	require.InDelta(t, 99, merged.Low, 1e-9)
	require.InDelta(t, 22, merged.Volume, 1e-9)
}

func TestCSVFeed_SubscriptionReplaysArchive(t *testing.T) {
	feed, err := NewCSVFeed("BTCUSDT", "1h", writeArchive(t, hourlyArchive))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ccandle, _ := feed.KlineSubscription(ctx, "BTCUSDT", "1h")

	var got []core.Candle
	for candle := range ccandle {
		got = append(got, candle)
	}
	require.Len(t, got, 3)
	require.InDelta(t, 101, got[0].Close, 1e-9)
	require.InDelta(t, 102, got[2].Close, 1e-9)
}
