package feed

import (
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/require"
)

func TestConvertKlineToCandle(t *testing.T) {
	kline := binance.Kline{
		OpenTime: 1700000000000,
		Open:     "42000.10",
		High:     "42500.00",
		Low:      "41800.55",
		Close:    "42250.00",
		Volume:   "1234.5",
	}

	candle := convertKlineToCandle("BTCUSDT", "1d", kline)

	require.Equal(t, "BTCUSDT", candle.Symbol)
	require.Equal(t, "1d", candle.Interval)
	require.Equal(t, time.UnixMilli(1700000000000), candle.Time)
	require.InDelta(t, 42000.10, candle.Open, 1e-9)
	require.InDelta(t, 42500.00, candle.High, 1e-9)
	require.InDelta(t, 41800.55, candle.Low, 1e-9)
	require.InDelta(t, 42250.00, candle.Close, 1e-9)
	require.InDelta(t, 1234.5, candle.Volume, 1e-9)
	require.True(t, candle.Complete)
}

func TestConvertWsKlineToCandle(t *testing.T) {
	kline := binance.WsKline{
		StartTime: 1700000000000,
		Open:      "42000.10",
		High:      "42500.00",
		Low:       "41800.55",
		Close:     "42250.00",
		Volume:    "1234.5",
		IsFinal:   false,
	}

	candle := convertWsKlineToCandle("BTCUSDT", "1m", kline)

	require.Equal(t, time.UnixMilli(1700000000000), candle.Time)
	require.False(t, candle.Complete)
	require.InDelta(t, 42250.00, candle.Close, 1e-9)
}

func TestCandlePricePoint(t *testing.T) {
	candle := convertKlineToCandle("BTCUSDT", "1d", binance.Kline{
		OpenTime: 1700000000000,
		Close:    "42250.00",
	})

	point := candle.PricePoint()
	require.Equal(t, int64(1700000000000), point.Timestamp)
	require.Equal(t, "2023-11-14T22:13:20Z", point.Date)
	require.InDelta(t, 42250.00, point.Price, 1e-9)
}
