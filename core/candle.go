package core

import (
	"strconv"
	"time"
)

// Candle represents a trading candle with OHLCV data
type Candle struct {
	Symbol   string
	Interval string
	Time     time.Time
	Open     float64
	Close    float64
	Low      float64
	High     float64
	Volume   float64
	Complete bool
}

// IsComplete returns whether the candle period is closed
func (c Candle) IsComplete() bool { return c.Complete }

// IsEmpty checks if the candle contains no significant data
func (c Candle) IsEmpty() bool { return c.Symbol == "" && c.Close == 0 && c.Open == 0 && c.Volume == 0 }

// PricePoint converts the candle to the wire representation served by the
// price API: closing price tagged with the candle open time.
func (c Candle) PricePoint() PricePoint {
	return PricePoint{
		Timestamp: c.Time.UnixMilli(),
		Date:      c.Time.UTC().Format(time.RFC3339),
		Price:     c.Close,
	}
}

// ToSlice converts a candle to a string slice for CSV serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		strconv.FormatInt(c.Time.Unix(), 10),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// PricePoint is a single point of the price series as exposed to API
// consumers: millisecond timestamp, ISO-8601 date and closing price.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Date      string  `json:"date"`
	Price     float64 `json:"price"`
}
