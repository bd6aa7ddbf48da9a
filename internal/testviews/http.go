package testviews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/hotrank/internal/domain/model"
	"github.com/okian/hotrank/pkg/logger"
)

const headerRequestID = "X-Request-ID"

// HTTPClient tags every request with the run id.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	runID   string
	seq     atomic.Int64
}

func newHTTPClient(config *Config, runID string) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: config.BaseURL,
		runID:   runID,
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerRequestID, c.runID+"-"+strconv.FormatInt(c.seq.Add(1), 10))
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// drain discards and closes the response body so the connection is reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// submitViews posts every view with at most config.Workers in flight.
func submitViews(ctx context.Context, config *Config, client *HTTPClient, views []model.ItemID, stats *Stats) error {
	logger.Get().Info(ctx, "submitting views",
		logger.Int("views", len(views)),
		logger.Int("workers", config.Workers))

	var accepted, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for _, id := range views {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := submitView(gctx, client, id); err != nil {
				failed.Add(1)
				if config.Verbose {
					logger.Get().Warn(gctx, "view rejected", logger.Int64("item_id", int64(id)), logger.Error(err))
				}
				return nil
			}
			accepted.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats.ViewsAccepted = int(accepted.Load())
	stats.ViewsFailed = int(failed.Load())
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("view submission interrupted: %w", err)
	}

	logger.Get().Info(ctx, "view submission completed",
		logger.Int("accepted", stats.ViewsAccepted),
		logger.Int("failed", stats.ViewsFailed))
	return nil
}

func submitView(ctx context.Context, client *HTTPClient, id model.ItemID) error {
	resp, err := client.do(ctx, http.MethodPost, "/items/"+id.Member()+"/views")
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// fetchHot reads GET /hot and the source header.
func fetchHot(ctx context.Context, client *HTTPClient, limit int) ([]HotEntry, string, error) {
	resp, err := client.do(ctx, http.MethodGet, "/hot?limit="+strconv.Itoa(limit))
	if err != nil {
		return nil, "", err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("hot list request failed with status: %d", resp.StatusCode)
	}

	var entries []HotEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, "", fmt.Errorf("failed to decode hot list: %w", err)
	}
	return entries, resp.Header.Get("X-Hot-Source"), nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	resp, err := client.do(ctx, http.MethodGet, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}
