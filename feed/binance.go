// Package feed provides market data feeders backed by the Binance spot
// API: REST klines for history and a websocket stream for live updates.
package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"

	"github.com/raykavin/pricelens/core"
)

// Binance implements core.Feeder against the Binance spot market.
type Binance struct {
	client *binance.Client
	log    core.Logger
}

// Option is a function that configures a Binance feeder.
type Option func(*Binance)

// WithCredentials sets API credentials. Public kline endpoints work
// without them.
func WithCredentials(key, secret string) Option {
	return func(b *Binance) {
		b.client = binance.NewClient(key, secret)
	}
}

// WithTestnet routes all requests to the Binance testnet.
func WithTestnet() Option {
	return func(*Binance) {
		binance.UseTestnet = true
	}
}

// NewBinance creates a Binance spot feeder.
func NewBinance(log core.Logger, opts ...Option) *Binance {
	b := &Binance{
		client: binance.NewClient("", ""),
		log:    log,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// LastQuote gets the latest price for a symbol.
func (b *Binance) LastQuote(ctx context.Context, symbol string) (float64, error) {
	candles, err := b.KlinesByLimit(ctx, symbol, "1m", 1)
	if err != nil || len(candles) < 1 {
		return 0, err
	}
	return candles[0].Close, nil
}

// KlinesByLimit gets the most recent complete candles for a symbol.
func (b *Binance) KlinesByLimit(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	data, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit + 1). // +1 to account for the incomplete candle
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines: %w", err)
	}

	candles := make([]core.Candle, 0, len(data))
	for i, d := range data {
		// Skip the last candle as it's still forming.
		if i == len(data)-1 {
			break
		}
		candles = append(candles, convertKlineToCandle(symbol, interval, *d))
	}

	return candles, nil
}

// KlinesByPeriod gets candles for a symbol within a time range.
func (b *Binance) KlinesByPeriod(ctx context.Context, symbol, interval string,
	start, end time.Time) ([]core.Candle, error) {

	data, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines: %w", err)
	}

	candles := make([]core.Candle, 0, len(data))
	for _, d := range data {
		candles = append(candles, convertKlineToCandle(symbol, interval, *d))
	}

	return candles, nil
}

// KlineSubscription subscribes to live candle updates for a symbol. The
// stream reconnects with exponential backoff until the context is done.
// Partial updates of the forming candle are delivered with Complete set
// to false.
func (b *Binance) KlineSubscription(ctx context.Context, symbol, interval string) (chan core.Candle, chan error) {
	candleChan := make(chan core.Candle)
	errChan := make(chan error)
	retry := &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 1 * time.Second,
	}

	go func() {
		for {
			done, _, err := binance.WsKlineServe(symbol, interval,
				func(event *binance.WsKlineEvent) {
					retry.Reset()
					select {
					case candleChan <- convertWsKlineToCandle(symbol, interval, event.Kline):
					case <-ctx.Done():
					}
				},
				func(err error) {
					b.log.Errorf("binance kline stream %s/%s: %v", symbol, interval, err)
					select {
					case errChan <- err:
					case <-ctx.Done():
					}
				})
			if err != nil {
				b.log.Errorf("binance kline stream connect %s/%s: %v", symbol, interval, err)
				done = nil
			}

			if done == nil {
				select {
				case <-ctx.Done():
					close(errChan)
					close(candleChan)
					return
				case <-time.After(retry.Duration()):
					continue
				}
			}

			select {
			case <-ctx.Done():
				close(errChan)
				close(candleChan)
				return
			case <-done:
				time.Sleep(retry.Duration())
			}
		}
	}()

	return candleChan, errChan
}

// convertKlineToCandle converts a Binance REST kline. REST klines are
// complete by construction except the very last one, which callers skip.
func convertKlineToCandle(symbol, interval string, k binance.Kline) core.Candle {
	candle := core.Candle{
		Symbol:   symbol,
		Interval: interval,
		Time:     time.Unix(0, k.OpenTime*int64(time.Millisecond)),
		Complete: true,
	}

	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)

	return candle
}

// convertWsKlineToCandle converts a Binance websocket kline.
func convertWsKlineToCandle(symbol, interval string, k binance.WsKline) core.Candle {
	candle := core.Candle{
		Symbol:   symbol,
		Interval: interval,
		Time:     time.Unix(0, k.StartTime*int64(time.Millisecond)),
		Complete: k.IsFinal,
	}

	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)

	return candle
}
