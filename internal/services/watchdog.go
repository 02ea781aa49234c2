package services

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Watchdog forces a full process restart when playback makes no forward
// progress within the timeout. Restart is the terminal recovery action for
// any stuck state on unattended hardware; the process supervisor brings the
// agent back up.
type Watchdog struct {
	timeout time.Duration
	restart func()
	logger  zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
	once  sync.Once
}

// NewWatchdog creates a watchdog. A nil restart func defaults to exiting
// the process so the supervisor restarts it.
func NewWatchdog(timeout time.Duration, restart func(), logger zerolog.Logger) *Watchdog {
	if restart == nil {
		restart = func() { os.Exit(1) }
	}
	return &Watchdog{
		timeout: timeout,
		restart: restart,
		logger:  logger,
	}
}

// Reset re-arms the timeout. Called on every successful slide advance.
func (w *Watchdog) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.timeout, w.fire)
}

// Stop disarms the watchdog.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// fire triggers the restart action at most once for the process lifetime.
func (w *Watchdog) fire() {
	w.once.Do(func() {
		w.logger.Error().Dur("timeout", w.timeout).Msg("Watchdog expired with no playback progress, restarting")
		w.restart()
	})
}
