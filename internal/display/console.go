package display

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// defaultVideoRuntime stands in for a video's natural length when a frame
// carries no duration hint.
const defaultVideoRuntime = 10 * time.Second

// ConsoleSurface is a headless Surface for development and soak testing:
// frames are logged, content is ready immediately, and videos "end" after
// their duration hint.
type ConsoleSurface struct {
	logger zerolog.Logger

	mu     sync.Mutex
	timers map[Slot]*time.Timer
	ended  chan Slot
}

// NewConsoleSurface creates a console surface.
func NewConsoleSurface(logger zerolog.Logger) *ConsoleSurface {
	return &ConsoleSurface{
		logger: logger,
		timers: make(map[Slot]*time.Timer),
		ended:  make(chan Slot, 4),
	}
}

// Apply logs the frame and, for videos, schedules a synthetic end-of-media
// event.
func (c *ConsoleSurface) Apply(ctx context.Context, slot Slot, frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked(slot)

	c.logger.Info().
		Str("slot", string(slot)).
		Str("kind", string(frame.Kind)).
		Str("source", frame.Source).
		Msg("Frame applied")

	if frame.Kind == FrameVideo {
		runtime := frame.Duration
		if runtime <= 0 {
			runtime = defaultVideoRuntime
		}
		c.timers[slot] = time.AfterFunc(runtime, func() {
			select {
			case c.ended <- slot:
			default:
			}
		})
	}

	return nil
}

// Show logs the visible/hidden swap.
func (c *ConsoleSurface) Show(slot Slot) {
	c.logger.Info().Str("slot", string(slot)).Msg("Slot visible")
}

// Clear drops the slot's pending end-of-media timer.
func (c *ConsoleSurface) Clear(slot Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked(slot)
}

// SetOverlay logs overlay transitions.
func (c *ConsoleSurface) SetOverlay(overlay Overlay) {
	c.logger.Info().
		Str("overlay", string(overlay.Kind)).
		Str("text", overlay.Text).
		Msg("Overlay changed")
}

// SetBranding logs branding changes.
func (c *ConsoleSurface) SetBranding(branding Branding) {
	c.logger.Info().
		Str("organization", branding.OrganizationName).
		Str("primary_color", branding.PrimaryColor).
		Msg("Branding changed")
}

// Ended delivers synthetic video completions.
func (c *ConsoleSurface) Ended() <-chan Slot {
	return c.ended
}

func (c *ConsoleSurface) stopTimerLocked(slot Slot) {
	if t, ok := c.timers[slot]; ok {
		t.Stop()
		delete(c.timers, slot)
	}
}
