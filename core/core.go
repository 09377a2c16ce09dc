package core

import (
	"context"
	"time"
)

// Feeder provides market data from an upstream exchange.
type Feeder interface {
	LastQuote(ctx context.Context, symbol string) (float64, error)
	KlinesByLimit(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	KlinesByPeriod(ctx context.Context, symbol, interval string, start, end time.Time) ([]Candle, error)
	KlineSubscription(ctx context.Context, symbol, interval string) (chan Candle, chan error)
}

// Notifier delivers user-facing alerts, e.g. price threshold crossings.
type Notifier interface {
	Notify(message string)
	OnError(err error)
}

// KlineStorage persists historical candles for offline use.
type KlineStorage interface {
	SaveCandles(ctx context.Context, candles []Candle) error
	Candles(ctx context.Context, symbol, interval string, start, end time.Time) ([]Candle, error)
}
