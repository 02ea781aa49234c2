package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	IsOnline() bool
}

// ConnectivityService probes the backend endpoint on an interval and tracks
// online/offline transitions. Offline is a first-class mode, not an error:
// subscribers suppress network calls while offline and resume on the
// online transition.
type ConnectivityService struct {
	probeURL string
	interval time.Duration
	client   *http.Client
	logger   zerolog.Logger

	mu        sync.Mutex
	online    bool
	onOnline  []func()
	onOffline []func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConnectivityService creates a connectivity watcher probing probeURL.
func NewConnectivityService(probeURL string, interval, timeout time.Duration, logger zerolog.Logger) *ConnectivityService {
	return &ConnectivityService{
		probeURL: probeURL,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		online:   true,
	}
}

// OnOnline registers a callback for offline-to-online transitions.
// Register before Start.
func (c *ConnectivityService) OnOnline(fn func()) {
	c.onOnline = append(c.onOnline, fn)
}

// OnOffline registers a callback for online-to-offline transitions.
// Register before Start.
func (c *ConnectivityService) OnOffline(fn func()) {
	c.onOffline = append(c.onOffline, fn)
}

// IsOnline reports the last probed connectivity state.
func (c *ConnectivityService) IsOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Start probes once synchronously so boot decisions (offline boot from
// cache) see a real state, then keeps probing in the background.
func (c *ConnectivityService) Start() error {
	if c.ctx != nil {
		c.logger.Warn().Msg("ConnectivityService is already running")
		return errors.New("connectivity service is already running")
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.setOnline(c.probe(c.ctx), false)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runProbeLoop()
	}()

	c.logger.Info().Str("probe_url", c.probeURL).Msg("ConnectivityService started successfully")
	return nil
}

// Stop gracefully stops the probe loop.
func (c *ConnectivityService) Stop() error {
	if c.ctx == nil {
		c.logger.Warn().Msg("ConnectivityService is not running")
		return errors.New("connectivity service is not running")
	}

	c.cancel()
	c.wg.Wait()

	c.ctx = nil
	c.cancel = nil

	c.logger.Info().Msg("ConnectivityService stopped successfully")
	return nil
}

func (c *ConnectivityService) runProbeLoop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.setOnline(c.probe(c.ctx), true)
		case <-c.ctx.Done():
			return
		}
	}
}

// probe issues one lightweight request against the backend.
func (c *ConnectivityService) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// setOnline records the state and fires transition callbacks.
func (c *ConnectivityService) setOnline(online, notify bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.mu.Unlock()

	if !changed || !notify {
		return
	}

	if online {
		c.logger.Info().Msg("Connectivity restored")
		for _, fn := range c.onOnline {
			fn()
		}
	} else {
		c.logger.Warn().Msg("Connectivity lost")
		for _, fn := range c.onOffline {
			fn()
		}
	}
}
