package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/internal/service"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [linkId]",
	Short: "Print click statistics for a link",
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id < 1 {
		fmt.Fprintf(os.Stderr, "Invalid link id: %s\n", args[0])
		os.Exit(1)
	}

	logging.InitLoggerFromConfig()
	repository.InitDB(logging.Logger, logging.AtomicLevel)

	report, err := service.AggregateStats(uint(id))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Total clicks: %d\n", report.TotalClicks)

	days := make([]string, 0, len(report.DailyClicks))
	for day := range report.DailyClicks {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		bucket := report.DailyClicks[day]
		fmt.Printf("  %s: %d clicks\n", day, bucket.Clicks)
		for device, count := range bucket.DeviceCounts {
			fmt.Printf("    %s: %d\n", device, count)
		}
	}
}
