// Package jobs holds background jobs started next to the HTTP server.
package jobs

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sbilibin2017/bookworm/internal/logger"
)

// pingTimeout bounds a single keep-alive request.
const pingTimeout = 30 * time.Second

// KeepAlive periodically requests the service's public URL so that free
// hosting tiers do not put it to sleep.
type KeepAlive struct {
	url    string
	client *http.Client
	cron   *cron.Cron
}

// NewKeepAlive schedules a GET of url on the standard 5-field cron schedule.
func NewKeepAlive(url, schedule string) (*KeepAlive, error) {
	k := &KeepAlive{
		url:    url,
		client: &http.Client{Timeout: pingTimeout},
		cron:   cron.New(),
	}

	if _, err := k.cron.AddFunc(schedule, func() {
		_ = k.Ping(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid keep-alive schedule %q: %w", schedule, err)
	}
	return k, nil
}

// Start runs the schedule in its own goroutine.
func (k *KeepAlive) Start() {
	k.cron.Start()
	logger.Log.Infow("keep-alive job started", "url", k.url)
}

// Stop stops the schedule and waits for a running ping to finish or ctx to end.
func (k *KeepAlive) Stop(ctx context.Context) {
	select {
	case <-k.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Ping issues one GET request. Failures are logged and returned.
func (k *KeepAlive) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		logger.Log.Errorw("keep-alive request failed", "url", k.url, "err", err)
		return err
	}

	resp, err := k.client.Do(req)
	if err != nil {
		logger.Log.Errorw("keep-alive request failed", "url", k.url, "err", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warnw("keep-alive got unexpected status", "url", k.url, "status", resp.StatusCode)
		return fmt.Errorf("keep-alive: unexpected status %d", resp.StatusCode)
	}

	logger.Log.Debugw("keep-alive ok", "url", k.url)
	return nil
}
