package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raykavin/pricelens/download"
	"github.com/raykavin/pricelens/feed"
	zlogger "github.com/raykavin/pricelens/logger/zerolog"
	"github.com/raykavin/pricelens/storage"
)

const dateLayout = "2006-01-02"

// Download command flags
var (
	symbol     string
	days       int
	startDate  string
	endDate    string
	timeframe  string
	outputFile string
	dbFile     string
	testnet    bool
)

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download historical kline data",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&symbol, "symbol", "p", "", "Trading symbol (e.g. BTCUSDT)")
	downloadCmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days to download (default 30 days)")
	downloadCmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (e.g. 2021-12-01)")
	downloadCmd.Flags().StringVarP(&endDate, "end", "e", "", "End date (e.g. 2021-12-31)")
	downloadCmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "Timeframe (e.g. 1h)")
	downloadCmd.Flags().StringVarP(&outputFile, "output", "o", "", "CSV output path (e.g. ./btc.csv)")
	downloadCmd.Flags().StringVarP(&dbFile, "database", "b", "", "Sqlite archive path (e.g. ./klines.db)")
	downloadCmd.Flags().BoolVarP(&testnet, "testnet", "n", false, "Use the testnet endpoints")

	downloadCmd.MarkFlagRequired("symbol")
	downloadCmd.MarkFlagRequired("timeframe")

	return downloadCmd
}

func runDownload(cmd *cobra.Command, _ []string) error {
	if outputFile == "" && dbFile == "" {
		return fmt.Errorf("at least one of --output or --database is required")
	}

	log, err := zlogger.New("info", dateTimeLayout, true, false)
	if err != nil {
		return err
	}

	var feedOptions []feed.Option
	if testnet {
		feedOptions = append(feedOptions, feed.WithTestnet())
	}
	feeder := feed.NewBinance(log, feedOptions...)

	options, err := buildDownloadOptions()
	if err != nil {
		return err
	}

	if outputFile != "" {
		options = append(options, download.WithCSV(outputFile))
	}
	if dbFile != "" {
		archive, err := storage.NewFromSQLite(dbFile, storage.DefaultConfig())
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()
		options = append(options, download.WithStorage(archive))
	}

	report, err := download.NewDownloader(feeder, log).Download(
		cmd.Context(),
		symbol,
		timeframe,
		options...,
	)
	if err != nil {
		return err
	}

	fmt.Println(report)
	fmt.Println("------ RETURNS -------")
	return report.PrintHistogram(os.Stdout)
}

func buildDownloadOptions() ([]download.Option, error) {
	var options []download.Option

	if days > 0 {
		options = append(options, download.WithDays(days))
	}

	if startDate != "" || endDate != "" {
		// Both must be provided together
		if startDate == "" || endDate == "" {
			return nil, fmt.Errorf("start and end dates must be provided together")
		}

		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date format: %w", err)
		}

		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date format: %w", err)
		}

		options = append(options, download.WithInterval(start, end))
	}

	return options, nil
}
