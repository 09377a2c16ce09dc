package chart

import "gonum.org/v1/gonum/floats"

// Scales maps between price/time space and plot-area pixel space.
// PriceToY and YToPrice are exact inverses of each other; a flat or
// single-point series is padded so the price axis never degenerates.
type Scales struct {
	minPrice float64
	maxPrice float64
	minTime  int64
	maxTime  int64
	plotW    float64
	plotH    float64
}

// flatPad keeps the price axis invertible when the series has no spread.
const flatPad = 0.5

func newScales(series []Point, dims Dimensions) *Scales {
	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.Price
	}

	minPrice := floats.Min(prices)
	maxPrice := floats.Max(prices)
	if minPrice == maxPrice {
		minPrice -= flatPad
		maxPrice += flatPad
	}

	return &Scales{
		minPrice: minPrice,
		maxPrice: maxPrice,
		minTime:  series[0].Timestamp,
		maxTime:  series[len(series)-1].Timestamp,
		plotW:    dims.PlotWidth(),
		plotH:    dims.PlotHeight(),
	}
}

// PriceToY converts a price to a Y offset inside the plot area.
// The highest price of the domain maps to 0, the lowest to PlotHeight.
func (s *Scales) PriceToY(price float64) float64 {
	return (s.maxPrice - price) / (s.maxPrice - s.minPrice) * s.plotH
}

// YToPrice is the inverse of PriceToY.
func (s *Scales) YToPrice(y float64) float64 {
	if s.plotH == 0 {
		return s.maxPrice
	}
	return s.maxPrice - y/s.plotH*(s.maxPrice-s.minPrice)
}

// TimeToX converts a millisecond timestamp to an X offset inside the
// plot area. A single-point time domain maps to the left edge.
func (s *Scales) TimeToX(timestamp int64) float64 {
	if s.maxTime == s.minTime {
		return 0
	}
	return float64(timestamp-s.minTime) / float64(s.maxTime-s.minTime) * s.plotW
}

// ClampY restricts a Y offset to the vertical plot bounds.
func (s *Scales) ClampY(y float64) float64 {
	if y < 0 {
		return 0
	}
	if y > s.plotH {
		return s.plotH
	}
	return y
}

// MinPrice returns the lower bound of the price domain.
func (s *Scales) MinPrice() float64 { return s.minPrice }

// MaxPrice returns the upper bound of the price domain.
func (s *Scales) MaxPrice() float64 { return s.maxPrice }

// PlotHeight returns the pixel height the scales were built for.
func (s *Scales) PlotHeight() float64 { return s.plotH }
