package testviews

import (
	"fmt"
	"os"

	"github.com/okian/hotrank/pkg/logger"
)

// SetupLogging initializes the global logger for the load tool.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`hotrank view load tool
======================

Submits Zipf-skewed views to a running hotrank service, then fetches the
hot list and checks that it is sorted and led by the most viewed items.

Usage:
  go run ./cmd/test-views [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -views int
        Number of views to submit (default 10000)
  -items int
        Item ids 1..N receive views (default 100)
  -skew float
        Zipf exponent, greater than 1 (default 1.2)
  -seed uint
        Generator seed, 0 for random (default 0)
  -top int
        Size of the hot list to fetch (default 10)
  -workers int
        Concurrent submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Log every failed request
  -help
        Show this help message

Examples:
  # Against a service started with HOTRANK_SEED_ITEMS=100
  go run ./cmd/test-views -views 50000 -workers 32
`)
}
