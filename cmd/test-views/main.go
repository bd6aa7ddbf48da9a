package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/hotrank/internal/testviews"
)

const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numViews = flag.Int("views", testviews.DefaultNumViews, "Number of views to submit")
		numItems = flag.Int("items", testviews.DefaultNumItems, "Item ids 1..N receive views")
		skew     = flag.Float64("skew", testviews.DefaultSkew, "Zipf exponent, greater than 1")
		seed     = flag.Uint64("seed", 0, "Generator seed, 0 for random")
		topN     = flag.Int("top", testviews.DefaultTopN, "Size of the hot list to fetch")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent submitters")
		timeout  = flag.Duration("timeout", testviews.DefaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Log every failed request")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testviews.ShowHelp()
		return
	}

	if err := testviews.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testviews.Config{
		BaseURL:  *baseURL,
		NumViews: *numViews,
		NumItems: *numItems,
		Skew:     *skew,
		Seed:     *seed,
		TopN:     *topN,
		Workers:  *workers,
		Timeout:  *timeout,
		Verbose:  *verbose,
	}

	if _, err := testviews.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
