// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package attachment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultFetchTimeout = 60 * time.Second
	maxFetchRetries     = 3
	initialRetryDelay   = 1 * time.Second

	// DefaultBatchDelay is the fixed inter-request delay inserted between
	// consecutive downloads in FetchBatch to avoid request flooding.
	DefaultBatchDelay = 200 * time.Millisecond
)

// Fetcher retrieves attachment bytes from a resolved URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads attachments over HTTP with bounded retries.
type HTTPFetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPFetcher creates a fetcher. A non-positive timeout uses the default.
func NewHTTPFetcher(timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch downloads the URL, retrying transient failures with exponential
// backoff.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	delay := initialRetryDelay

	for attempt := 1; attempt <= maxFetchRetries; attempt++ {
		data, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !retryable || attempt == maxFetchRetries {
			break
		}

		f.logger.Warn("Attachment fetch failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxFetchRetries),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", maxFetchRetries, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (data []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Server-side and throttling failures are worth retrying;
		// client errors are not.
		retryable = resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return data, false, nil
}

// BatchItem is one download request for FetchBatch.
type BatchItem struct {
	Name string
	URL  string
}

// BatchResult is the outcome of one FetchBatch item. Err is nil on success.
type BatchResult struct {
	Name string
	Data []byte
	Err  error
}

// FetchBatch downloads items strictly sequentially, inserting a fixed delay
// between consecutive requests and reporting 1-based progress before each
// item. Per-item failures are recorded in the result slice and do not stop
// the batch. A non-positive delay uses DefaultBatchDelay.
func FetchBatch(ctx context.Context, f Fetcher, items []BatchItem, delay time.Duration, onProgress func(current, total int)) []BatchResult {
	if delay <= 0 {
		delay = DefaultBatchDelay
	}

	results := make([]BatchResult, 0, len(items))
	for i, item := range items {
		if onProgress != nil {
			onProgress(i+1, len(items))
		}

		data, err := f.Fetch(ctx, item.URL)
		results = append(results, BatchResult{Name: item.Name, Data: data, Err: err})

		if i < len(items)-1 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(delay):
			}
		}
	}
	return results
}
