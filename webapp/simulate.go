package webapp

import (
	"math/rand"
	"time"

	"github.com/raykavin/pricelens/core"
)

// StartSimulation starts candle simulation if configured. Simulated
// ticks flow through the same OnCandle path as real ones, which makes
// the whole app usable without upstream connectivity.
func (a *App) StartSimulation() {
	if a.simulationInterval <= 0 {
		return
	}

	a.log.Info("Starting candle simulation with interval ", a.simulationInterval)
	a.startCandleSimulation(a.simulationInterval)
}

func (a *App) startCandleSimulation(interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		a.Lock()
		price := 100.0
		lastTime := time.Now().Truncate(time.Minute)
		if n := len(a.series); n > 0 {
			price = a.series[n-1].Price
			lastTime = time.UnixMilli(a.series[n-1].Timestamp)
		}
		a.Unlock()

		current := core.Candle{
			Symbol:   a.defaults.Symbol,
			Interval: a.defaults.Interval,
			Time:     lastTime,
			Open:     price,
			High:     price,
			Low:      price,
			Close:    price,
		}

		for range ticker.C {
			priceChange := (rand.Float64() - 0.5) * 2.0
			newClose := current.Close + priceChange

			if newClose > current.High {
				current.High = newClose
			}
			if newClose < current.Low {
				current.Low = newClose
			}
			current.Close = newClose
			current.Volume += rand.Float64() * 10.0

			a.OnCandle(current)

			// Every 10 updates or so, close the candle and open a new one.
			if rand.Intn(10) == 0 {
				current.Complete = true
				a.OnCandle(current)

				current = core.Candle{
					Symbol:   current.Symbol,
					Interval: current.Interval,
					Time:     current.Time.Add(time.Minute),
					Open:     current.Close,
					High:     current.Close,
					Low:      current.Close,
					Close:    current.Close,
				}
			}
		}
	}()
}
