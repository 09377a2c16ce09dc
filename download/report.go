package download

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"

	"github.com/raykavin/pricelens/core"
)

// Report collects the price statistics of a finished download.
type Report struct {
	Symbol    string
	Timeframe string
	Candles   int
	Missing   int
	First     time.Time
	Last      time.Time
	closes    core.Series[float64]
}

func newReport(symbol, timeframe string) *Report {
	return &Report{Symbol: symbol, Timeframe: timeframe}
}

func (r *Report) add(candles []core.Candle) {
	for _, candle := range candles {
		if r.Candles == 0 {
			r.First = candle.Time
		}
		r.Last = candle.Time
		r.closes = append(r.closes, candle.Close)
		r.Candles++
	}
}

// Returns lists the close-to-close percent changes of the series.
func (r *Report) Returns() []float64 {
	if len(r.closes) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(r.closes)-1)
	for i := 1; i < len(r.closes); i++ {
		prev := r.closes[i-1]
		if prev == 0 {
			continue
		}
		returns = append(returns, (r.closes[i]-prev)/prev*100)
	}
	return returns
}

// String formats the download summary as a text table
func (r *Report) String() string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)

	data := [][]string{
		{"Symbol", r.Symbol},
		{"Timeframe", r.Timeframe},
		{"Candles", strconv.Itoa(r.Candles)},
		{"Missing", strconv.Itoa(r.Missing)},
	}

	if r.Candles > 0 {
		first := r.closes[0]
		last := r.closes.Last(0)
		change := 0.0
		if first != 0 {
			change = (last - first) / first * 100
		}

		data = append(data,
			[]string{"From", r.First.UTC().Format(time.DateOnly)},
			[]string{"To", r.Last.UTC().Format(time.DateOnly)},
			[]string{"Low", fmt.Sprintf("%.2f", floats.Min(r.closes))},
			[]string{"High", fmt.Sprintf("%.2f", floats.Max(r.closes))},
			[]string{"First", fmt.Sprintf("%.2f", first)},
			[]string{"Last", fmt.Sprintf("%.2f", last)},
			[]string{"Change", fmt.Sprintf("%.2f%%", change)},
		)
	}

	table.AppendBulk(data)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()

	return tableString.String()
}

// PrintHistogram renders the distribution of close-to-close returns.
func (r *Report) PrintHistogram(w io.Writer) error {
	returns := r.Returns()
	if len(returns) == 0 {
		return nil
	}

	hist := histogram.Hist(15, returns)
	return histogram.Fprint(w, hist, histogram.Linear(10))
}
