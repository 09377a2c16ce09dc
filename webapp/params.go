package webapp

import (
	"net/url"
	"strconv"
)

// QueryState is the page state carried on the URL query string. Every
// field is optional; absent or unparsable values fall back to the
// configured defaults.
type QueryState struct {
	Symbol        string  `json:"symbol"`
	Interval      string  `json:"interval"`
	Limit         int     `json:"limit"`
	Threshold     float64 `json:"threshold"`
	ThresholdMin  float64 `json:"thresholdMin"`
	ThresholdMax  float64 `json:"thresholdMax"`
	ThresholdStep float64 `json:"thresholdStep"`
}

// ParseQueryState reads the page state from query values, falling back
// to defaults field by field.
func ParseQueryState(values url.Values, defaults QueryState) QueryState {
	state := defaults

	if symbol := values.Get("symbol"); symbol != "" {
		state.Symbol = symbol
	}
	if interval := values.Get("interval"); interval != "" {
		state.Interval = interval
	}
	if limit, ok := parsePositiveInt(values.Get("limit")); ok {
		state.Limit = limit
	}
	if threshold, ok := parseNonNegativeFloat(values.Get("threshold")); ok {
		state.Threshold = threshold
	}
	if min, ok := parseNonNegativeFloat(values.Get("thresholdMin")); ok {
		state.ThresholdMin = min
	}
	if max, ok := parseNonNegativeFloat(values.Get("thresholdMax")); ok {
		state.ThresholdMax = max
	}
	if step, ok := parseNonNegativeFloat(values.Get("thresholdStep")); ok {
		state.ThresholdStep = step
	}

	return state
}

func parsePositiveInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

func parseNonNegativeFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
