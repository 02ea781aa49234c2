package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/display"
	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/internal/renderers"
)

// faultSkipDelay paces skip-on-fault advances so a playlist of entirely
// broken slides cannot spin the loop hot while still never stalling on one
// bad asset.
const faultSkipDelay = 250 * time.Millisecond

// PlaybackService is the playback state machine. It owns the two display
// buffer slots, advances strictly sequentially through the active snapshot,
// and applies staged snapshots only at the wrap boundary so a slide
// mid-display is never interrupted.
type PlaybackService struct {
	surface    display.Surface
	renderers  map[models.SlideKind]renderers.Renderer
	watchdog   *Watchdog
	emptyRetry time.Duration
	clearDelay time.Duration
	logger     zerolog.Logger

	mu           sync.Mutex
	active       *models.PlaylistSnapshot
	staged       *models.PlaylistSnapshot
	currentIndex int
	visible      display.Slot
	slideTimer   *time.Timer
	waiting      bool

	// advanceCh serializes every advance trigger (slide timer, video end,
	// fault skip, snapshot install) into the single run loop.
	advanceCh chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPlaybackService initializes a new PlaybackService.
func NewPlaybackService(surface display.Surface, rendererSet map[models.SlideKind]renderers.Renderer,
	watchdog *Watchdog, emptyRetry, clearDelay time.Duration, logger zerolog.Logger) *PlaybackService {

	return &PlaybackService{
		surface:      surface,
		renderers:    rendererSet,
		watchdog:     watchdog,
		emptyRetry:   emptyRetry,
		clearDelay:   clearDelay,
		logger:       logger,
		active:       &models.PlaylistSnapshot{},
		currentIndex: -1,
		visible:      display.SlotB,
		advanceCh:    make(chan struct{}, 1),
	}
}

// SetSnapshot installs a snapshot. An empty current list (first load or
// just-emptied) goes live immediately and playback kicks off from slide 0;
// otherwise the snapshot is staged for the next wrap boundary.
func (p *PlaybackService) SetSnapshot(snapshot *models.PlaylistSnapshot) {
	p.mu.Lock()
	if len(p.active.Slides) == 0 {
		p.active = snapshot
		p.staged = nil
		p.currentIndex = -1
		p.mu.Unlock()

		p.logger.Info().Int("slides", len(snapshot.Slides)).Msg("Snapshot installed immediately")
		p.requestAdvance()
		return
	}

	p.staged = snapshot
	p.mu.Unlock()
	p.logger.Info().Int("slides", len(snapshot.Slides)).Msg("Snapshot staged for next loop")
}

// CurrentIndex returns the index of the slide being displayed, -1 before
// the first slide.
func (p *PlaybackService) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentIndex
}

// Start launches the playback loop and arms the watchdog.
func (p *PlaybackService) Start() error {
	if p.ctx != nil {
		p.logger.Warn().Msg("PlaybackService is already running")
		return errors.New("playback service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.watchdog.Reset()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runPlaybackLoop()
	}()
	p.requestAdvance()

	p.logger.Info().Msg("PlaybackService started successfully")
	return nil
}

// Stop gracefully stops the playback loop and disarms the watchdog.
func (p *PlaybackService) Stop() error {
	if p.ctx == nil {
		p.logger.Warn().Msg("PlaybackService is not running")
		return errors.New("playback service is not running")
	}

	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	if p.slideTimer != nil {
		p.slideTimer.Stop()
		p.slideTimer = nil
	}
	p.mu.Unlock()

	p.watchdog.Stop()

	p.ctx = nil
	p.cancel = nil

	p.logger.Info().Msg("PlaybackService stopped successfully")
	return nil
}

func (p *PlaybackService) runPlaybackLoop() {
	for {
		select {
		case <-p.advanceCh:
			p.advance(p.ctx)
		case slot := <-p.surface.Ended():
			p.handleEnded(slot)
		case <-p.ctx.Done():
			return
		}
	}
}

// handleEnded reacts to a natural end-of-media notification. Only the
// visible slot playing a video may advance; anything else is a stale event
// from a cleared slot.
func (p *PlaybackService) handleEnded(slot display.Slot) {
	p.mu.Lock()
	current := p.currentSlideLocked()
	isCurrentVideo := current != nil && current.Kind == models.SlideKindVideo
	visible := p.visible
	p.mu.Unlock()

	if slot != visible || !isCurrentVideo {
		p.logger.Debug().Str("slot", string(slot)).Msg("Ignoring stale end-of-media event")
		return
	}
	p.requestAdvance()
}

// advance moves to the next slide. Every successful pass resets the
// watchdog; the watchdog firing without a reset means the loop is stuck and
// the process restarts.
func (p *PlaybackService) advance(ctx context.Context) {
	p.watchdog.Reset()

	p.mu.Lock()
	if p.slideTimer != nil {
		p.slideTimer.Stop()
		p.slideTimer = nil
	}

	// Wrap boundary: this is the only moment a staged snapshot may
	// replace the active one.
	if p.currentIndex >= len(p.active.Slides)-1 {
		if p.staged != nil {
			p.active = p.staged
			p.staged = nil
			p.logger.Info().Int("slides", len(p.active.Slides)).Msg("Staged snapshot applied at wrap boundary")
		}
		p.currentIndex = -1
	}
	p.currentIndex++

	if len(p.active.Slides) == 0 {
		p.waiting = true
		p.mu.Unlock()

		p.surface.SetOverlay(display.Overlay{Kind: display.OverlayLoading, Text: "Waiting for content..."})
		time.AfterFunc(p.emptyRetry, p.requestAdvance)
		return
	}

	slide := p.active.Slides[p.currentIndex]
	wasWaiting := p.waiting
	p.waiting = false
	hidden := p.visible.Other()
	p.mu.Unlock()

	if wasWaiting {
		p.surface.SetOverlay(display.Overlay{Kind: display.OverlayNone})
	}

	renderer, ok := p.renderers[slide.Kind]
	if !ok {
		p.logger.Warn().Str("kind", string(slide.Kind)).Str("slide", slide.Name).Msg("No renderer for slide kind, skipping")
		p.scheduleFaultSkip()
		return
	}

	frame, err := renderer.Render(ctx, slide)
	if err != nil {
		p.logger.Warn().Err(err).Str("slide", slide.Name).Msg("Slide render failed, skipping")
		p.scheduleFaultSkip()
		return
	}

	// The hidden slot is populated first and only swapped in once the
	// surface reports the content ready, so the screen never shows a
	// half-loaded slide.
	if err := p.surface.Apply(ctx, hidden, frame); err != nil {
		p.logger.Warn().Err(err).Str("slide", slide.Name).Msg("Slide failed to load, skipping")
		p.scheduleFaultSkip()
		return
	}

	p.surface.Show(hidden)

	p.mu.Lock()
	previous := p.visible
	p.visible = hidden

	// Videos play to their natural end; the surface's Ended event drives
	// the advance. Everything else advances on a timer that starts now,
	// after the content became visible.
	if slide.Kind != models.SlideKindVideo {
		duration := slide.Duration
		if duration <= 0 {
			duration = defaultSlideDuration
		}
		p.slideTimer = time.AfterFunc(duration, p.requestAdvance)
	}
	p.mu.Unlock()

	p.logger.Info().
		Int("index", p.CurrentIndex()).
		Str("slide", slide.Name).
		Str("kind", string(slide.Kind)).
		Msg("Slide visible")

	time.AfterFunc(p.clearDelay, func() {
		p.surface.Clear(previous)
	})
}

// scheduleFaultSkip advances past a broken slide without stalling the loop.
func (p *PlaybackService) scheduleFaultSkip() {
	time.AfterFunc(faultSkipDelay, p.requestAdvance)
}

// requestAdvance queues an advance; triggers collapse while one is pending.
func (p *PlaybackService) requestAdvance() {
	select {
	case p.advanceCh <- struct{}{}:
	default:
	}
}

// currentSlideLocked returns the slide at currentIndex. Callers hold mu.
func (p *PlaybackService) currentSlideLocked() *models.Slide {
	if p.currentIndex < 0 || p.currentIndex >= len(p.active.Slides) {
		return nil
	}
	return &p.active.Slides[p.currentIndex]
}
