// Package testviews drives skewed view traffic against a running service and
// checks the hot list it serves back.
package testviews

import (
	"time"

	"github.com/okian/hotrank/internal/domain/model"
)

// Default configuration values.
const (
	DefaultNumViews = 10000
	DefaultNumItems = 100
	DefaultSkew     = 1.2
	DefaultTopN     = 10
	DefaultTimeout  = 10 * time.Second
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	NumViews int           // Number of views to submit
	NumItems int           // Item ids 1..NumItems receive views
	Skew     float64       // Zipf exponent; must be > 1
	Seed     uint64        // Generator seed; zero picks one from the clock
	TopN     int           // Size of the hot list to fetch
	Workers  int           // Concurrent submitters
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log every failed request
}

// HotEntry mirrors one row of GET /hot.
type HotEntry struct {
	Rank  int        `json:"rank"`
	Item  model.Item `json:"item"`
	Score int64      `json:"score"`
}

// Stats holds run statistics.
type Stats struct {
	RunID         string
	ViewsPlanned  int
	ViewsAccepted int
	ViewsFailed   int
	HotEntries    int
	HotSource     string
	Warnings      []string
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
