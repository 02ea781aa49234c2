package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/loopin/signage-agent/internal/display"
	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/internal/renderers"
	"github.com/loopin/signage-agent/internal/services"
	"github.com/loopin/signage-agent/tests/mocks"
)

// stubRenderer turns a slide into a minimal frame of the matching kind.
type stubRenderer struct {
	kind display.FrameKind
	err  error
}

func (r stubRenderer) Render(_ context.Context, slide models.Slide) (display.Frame, error) {
	if r.err != nil {
		return display.Frame{}, r.err
	}
	return display.Frame{
		Kind:     r.kind,
		Source:   slide.AssetURL,
		Text:     slide.Text,
		Duration: slide.Duration,
	}, nil
}

func stubRenderers() map[models.SlideKind]renderers.Renderer {
	return map[models.SlideKind]renderers.Renderer{
		models.SlideKindImage: stubRenderer{kind: display.FrameImage},
		models.SlideKindVideo: stubRenderer{kind: display.FrameVideo},
		models.SlideKindText:  stubRenderer{kind: display.FrameText},
	}
}

func newPlayback(surface *mocks.FakeSurface) *services.PlaybackService {
	watchdog := services.NewWatchdog(time.Hour, func() {}, zerolog.Nop())
	return services.NewPlaybackService(surface, stubRenderers(), watchdog,
		20*time.Millisecond, 5*time.Millisecond, zerolog.Nop())
}

func textSlide(name string, duration time.Duration) models.Slide {
	return models.Slide{ID: name, Name: name, Kind: models.SlideKindText, Text: name, Duration: duration}
}

// TestPlaybackService_StartStop tests the service lifecycle guards.
func TestPlaybackService_StartStop(t *testing.T) {
	p := newPlayback(mocks.NewFakeSurface())

	err := p.Start()
	assert.NoError(t, err)

	err = p.Start()
	assert.Error(t, err)
	assert.Equal(t, "playback service is already running", err.Error())

	err = p.Stop()
	assert.NoError(t, err)

	err = p.Stop()
	assert.Error(t, err)
	assert.Equal(t, "playback service is not running", err.Error())
}

// TestPlaybackService_AdvancesThroughSlides tests that timed slides advance
// in order, alternating between the two buffer slots.
func TestPlaybackService_AdvancesThroughSlides(t *testing.T) {
	surface := mocks.NewFakeSurface()
	p := newPlayback(surface)

	p.SetSnapshot(&models.PlaylistSnapshot{
		PlaylistID: "pl-1",
		Slides: []models.Slide{
			textSlide("one", 20*time.Millisecond),
			textSlide("two", 20*time.Millisecond),
		},
	})

	assert.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return len(surface.Applied()) >= 4
	}, time.Second, 5*time.Millisecond)

	applied := surface.Applied()
	assert.Equal(t, "one", applied[0].Frame.Text)
	assert.Equal(t, "two", applied[1].Frame.Text)
	assert.Equal(t, "one", applied[2].Frame.Text)

	// The hidden slot alternates: render into A while B is visible, then
	// the other way around.
	assert.Equal(t, display.SlotA, applied[0].Slot)
	assert.Equal(t, display.SlotB, applied[1].Slot)
	assert.Equal(t, display.SlotA, applied[2].Slot)

	shown := surface.Shown()
	assert.GreaterOrEqual(t, len(shown), 3)
	assert.Equal(t, display.SlotA, shown[0])
	assert.Equal(t, display.SlotB, shown[1])
}

// TestPlaybackService_VideoAdvancesOnEnded tests that a video slide ignores
// its duration and only advances when the surface reports the natural end.
func TestPlaybackService_VideoAdvancesOnEnded(t *testing.T) {
	surface := mocks.NewFakeSurface()
	p := newPlayback(surface)

	p.SetSnapshot(&models.PlaylistSnapshot{
		PlaylistID: "pl-1",
		Slides: []models.Slide{
			{ID: "v", Name: "v", Kind: models.SlideKindVideo, AssetURL: "https://cdn/v.mp4", Duration: 10 * time.Millisecond},
			textSlide("after", 50*time.Millisecond),
		},
	})

	assert.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return len(surface.Applied()) == 1
	}, time.Second, 5*time.Millisecond)

	// Well past the nominal duration the video must still be up.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, surface.Applied(), 1)

	// An end event for the hidden slot is stale and must be ignored.
	surface.EmitEnded(display.SlotB)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, surface.Applied(), 1)

	surface.EmitEnded(display.SlotA)
	assert.Eventually(t, func() bool {
		applied := surface.Applied()
		return len(applied) >= 2 && applied[1].Frame.Text == "after"
	}, time.Second, 5*time.Millisecond)
}

// TestPlaybackService_MixedKindsAdvanceCorrectly tests an image-video-text
// pass: the image and text advance on their timers, the video only on its
// end event.
func TestPlaybackService_MixedKindsAdvanceCorrectly(t *testing.T) {
	surface := mocks.NewFakeSurface()
	p := newPlayback(surface)

	p.SetSnapshot(&models.PlaylistSnapshot{
		PlaylistID: "pl-1",
		Slides: []models.Slide{
			{ID: "img", Name: "img", Kind: models.SlideKindImage, AssetURL: "https://cdn/a.jpg", Duration: 25 * time.Millisecond},
			{ID: "vid", Name: "vid", Kind: models.SlideKindVideo, AssetURL: "https://cdn/b.mp4"},
			textSlide("txt", 25*time.Millisecond),
		},
	})

	assert.NoError(t, p.Start())
	defer p.Stop()

	// Image advances by timer into the video.
	assert.Eventually(t, func() bool {
		applied := surface.Applied()
		return len(applied) == 2 && applied[1].Frame.Kind == display.FrameVideo
	}, time.Second, 5*time.Millisecond)

	// The video holds until its end event, then the text follows.
	time.Sleep(80 * time.Millisecond)
	assert.Len(t, surface.Applied(), 2)

	surface.EmitEnded(display.SlotB)
	assert.Eventually(t, func() bool {
		applied := surface.Applied()
		return len(applied) == 3 && applied[2].Frame.Text == "txt"
	}, time.Second, 5*time.Millisecond)
}

// TestPlaybackService_WaitsForContent tests the waiting state shown while
// no playlist has any slides, and recovery once content arrives.
func TestPlaybackService_WaitsForContent(t *testing.T) {
	surface := mocks.NewFakeSurface()
	p := newPlayback(surface)

	assert.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return surface.HasOverlay(display.OverlayLoading)
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, surface.Applied())

	p.SetSnapshot(&models.PlaylistSnapshot{
		PlaylistID: "pl-1",
		Slides:     []models.Slide{textSlide("first", 50 * time.Millisecond)},
	})

	assert.Eventually(t, func() bool {
		return len(surface.Applied()) >= 1
	}, time.Second, 5*time.Millisecond)

	// Leaving the waiting state clears the overlay.
	overlays := surface.Overlays()
	assert.Equal(t, display.OverlayNone, overlays[len(overlays)-1].Kind)
}

// TestPlaybackService_StagedSnapshotAppliesAtWrap tests that an updated
// playlist never interrupts the slide mid-display: it goes live only when
// the current pass wraps.
func TestPlaybackService_StagedSnapshotAppliesAtWrap(t *testing.T) {
	surface := mocks.NewFakeSurface()
	p := newPlayback(surface)

	p.SetSnapshot(&models.PlaylistSnapshot{
		PlaylistID: "pl-1",
		Slides: []models.Slide{
			textSlide("old-1", 40*time.Millisecond),
			textSlide("old-2", 40*time.Millisecond),
		},
	})

	assert.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return len(surface.Applied()) == 1
	}, time.Second, 5*time.Millisecond)

	// Stage a replacement while old-1 is on screen.
	p.SetSnapshot(&models.PlaylistSnapshot{
		PlaylistID: "pl-2",
		Slides:     []models.Slide{textSlide("new-1", 40 * time.Millisecond)},
	})

	assert.Eventually(t, func() bool {
		return len(surface.Applied()) >= 3
	}, time.Second, 5*time.Millisecond)

	applied := surface.Applied()
	assert.Equal(t, "old-1", applied[0].Frame.Text)
	assert.Equal(t, "old-2", applied[1].Frame.Text)
	assert.Equal(t, "new-1", applied[2].Frame.Text)
}

// TestPlaybackService_SkipsFailingSlide tests that a slide whose content
// fails to load is skipped instead of stalling the loop.
func TestPlaybackService_SkipsFailingSlide(t *testing.T) {
	surface := mocks.NewFakeSurface()
	surface.ApplyErr = func(frame display.Frame) error {
		if frame.Text == "bad" {
			return errors.New("load failed")
		}
		return nil
	}
	p := newPlayback(surface)

	p.SetSnapshot(&models.PlaylistSnapshot{
		PlaylistID: "pl-1",
		Slides: []models.Slide{
			textSlide("bad", 40*time.Millisecond),
			textSlide("good", 40*time.Millisecond),
		},
	})

	assert.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		applied := surface.Applied()
		return len(applied) >= 1 && applied[0].Frame.Text == "good"
	}, time.Second, 5*time.Millisecond)
}

// TestPlaybackService_SkipsUnknownKind tests that a slide with no renderer
// is skipped.
func TestPlaybackService_SkipsUnknownKind(t *testing.T) {
	surface := mocks.NewFakeSurface()
	p := newPlayback(surface)

	p.SetSnapshot(&models.PlaylistSnapshot{
		PlaylistID: "pl-1",
		Slides: []models.Slide{
			{ID: "w", Name: "w", Kind: models.SlideKindHTML, HTML: "<p>hi</p>"},
			textSlide("good", 40 * time.Millisecond),
		},
	})

	assert.NoError(t, p.Start())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		applied := surface.Applied()
		return len(applied) >= 1 && applied[0].Frame.Text == "good"
	}, time.Second, 5*time.Millisecond)
}
