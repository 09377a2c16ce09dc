package webapp

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDefaults() QueryState {
	return QueryState{
		Symbol:        "BTCUSDT",
		Interval:      "1d",
		Limit:         168,
		Threshold:     45000,
		ThresholdMin:  10000,
		ThresholdMax:  90000,
		ThresholdStep: 100,
	}
}

func TestParseQueryState_EmptyFallsBackToDefaults(t *testing.T) {
	state := ParseQueryState(url.Values{}, testDefaults())
	require.Equal(t, testDefaults(), state)
}

func TestParseQueryState_OverridesFields(t *testing.T) {
	values := url.Values{
		"symbol":    []string{"ETHUSDT"},
		"interval":  []string{"1h"},
		"limit":     []string{"500"},
		"threshold": []string{"2400.50"},
	}

	state := ParseQueryState(values, testDefaults())
	require.Equal(t, "ETHUSDT", state.Symbol)
	require.Equal(t, "1h", state.Interval)
	require.Equal(t, 500, state.Limit)
	require.InDelta(t, 2400.50, state.Threshold, 1e-9)

	// Untouched fields keep their defaults.
	require.InDelta(t, 10000, state.ThresholdMin, 1e-9)
	require.InDelta(t, 100, state.ThresholdStep, 1e-9)
}

func TestParseQueryState_UnparsableValuesFallBack(t *testing.T) {
	values := url.Values{
		"limit":        []string{"banana"},
		"threshold":    []string{"-5"},
		"thresholdMin": []string{"NaN!"},
	}

	state := ParseQueryState(values, testDefaults())
	require.Equal(t, 168, state.Limit)
	require.InDelta(t, 45000, state.Threshold, 1e-9)
	require.InDelta(t, 10000, state.ThresholdMin, 1e-9)
}

func TestParseQueryState_RejectsNonPositiveLimit(t *testing.T) {
	values := url.Values{"limit": []string{"0"}}
	state := ParseQueryState(values, testDefaults())
	require.Equal(t, 168, state.Limit)

	values = url.Values{"limit": []string{"-3"}}
	state = ParseQueryState(values, testDefaults())
	require.Equal(t, 168, state.Limit)
}
