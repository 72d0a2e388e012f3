// Package webhooks posts batch completion notifications to configured
// HTTP endpoints.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lherron/tosum/internal/bulk"
)

const (
	defaultTimeout     = 2 * time.Second
	defaultConcurrency = 4
)

// Payload is the notification body sent when a batch finishes.
type Payload struct {
	BatchID      string    `json:"batch_id"`
	Kind         string    `json:"kind"`
	TotalItems   int       `json:"total_items"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	RolledBack   bool      `json:"rolled_back"`
	CompletedAt  time.Time `json:"completed_at"`
}

// NewPayload summarizes a finished batch report.
func NewPayload(kind string, report *bulk.Report) Payload {
	return Payload{
		BatchID:      report.BatchID,
		Kind:         kind,
		TotalItems:   report.TotalItems,
		SuccessCount: report.SuccessCount,
		ErrorCount:   report.ErrorCount,
		RolledBack:   report.Err != nil,
		CompletedAt:  time.Now().UTC(),
	}
}

// Dispatcher posts payloads to a fixed set of endpoint templates. URLs may
// contain {batch_id} and {kind} placeholders.
type Dispatcher struct {
	urls   []string
	client *http.Client
	logger *zap.Logger
}

// NewDispatcher returns a dispatcher for urls. A nil logger disables logging.
func NewDispatcher(urls []string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		urls:   urls,
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger,
	}
}

// Targets returns the templated, normalized and de-duplicated endpoints for
// a payload. Invalid URLs are skipped.
func (d *Dispatcher) Targets(payload Payload) []string {
	if len(d.urls) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(d.urls))
	var normalized []string

	for _, raw := range d.urls {
		templated := strings.TrimSpace(applyTemplate(strings.TrimSpace(raw), payload))
		templated = strings.TrimRight(templated, "/")
		if templated == "" {
			continue
		}
		if !isValidWebhookURL(templated) {
			d.logger.Warn("skipping invalid webhook url", zap.String("url", templated))
			continue
		}
		if _, ok := seen[templated]; ok {
			continue
		}
		seen[templated] = struct{}{}
		normalized = append(normalized, templated)
	}

	return normalized
}

// Dispatch posts payload to every target and waits for the requests to
// finish. Delivery failures are logged, never returned: a notification must
// not change the outcome of the batch it reports on.
func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload) {
	urls := d.Targets(payload)
	if len(urls) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("failed to encode webhook payload", zap.Error(err))
		return
	}

	workers := defaultConcurrency
	if len(urls) < workers {
		workers = len(urls)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for endpoint := range jobs {
				if err := d.send(ctx, endpoint, body); err != nil {
					d.logger.Warn("webhook delivery failed",
						zap.String("url", endpoint),
						zap.String("batch", payload.BatchID),
						zap.Error(err))
				}
			}
		}()
	}

	for _, endpoint := range urls {
		jobs <- endpoint
	}
	close(jobs)
	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func applyTemplate(raw string, payload Payload) string {
	result := strings.ReplaceAll(raw, "{batch_id}", payload.BatchID)
	return strings.ReplaceAll(result, "{kind}", payload.Kind)
}

func isValidWebhookURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
