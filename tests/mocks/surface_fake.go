package mocks

import (
	"context"
	"sync"

	"github.com/loopin/signage-agent/internal/display"
)

// AppliedFrame is one recorded Apply call.
type AppliedFrame struct {
	Slot  display.Slot
	Frame display.Frame
}

// FakeSurface is a scriptable display.Surface. It records every call for
// assertions and lets tests emit end-of-media events on demand.
type FakeSurface struct {
	mu        sync.Mutex
	applied   []AppliedFrame
	shown     []display.Slot
	cleared   []display.Slot
	overlays  []display.Overlay
	brandings []display.Branding
	ended     chan display.Slot

	// ApplyErr, when set, is consulted before a frame is recorded; a
	// non-nil return simulates a load failure for that frame.
	ApplyErr func(frame display.Frame) error
}

func NewFakeSurface() *FakeSurface {
	return &FakeSurface{ended: make(chan display.Slot, 8)}
}

func (f *FakeSurface) Apply(_ context.Context, slot display.Slot, frame display.Frame) error {
	if f.ApplyErr != nil {
		if err := f.ApplyErr(frame); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, AppliedFrame{Slot: slot, Frame: frame})
	return nil
}

func (f *FakeSurface) Show(slot display.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, slot)
}

func (f *FakeSurface) Clear(slot display.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, slot)
}

func (f *FakeSurface) SetOverlay(overlay display.Overlay) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlays = append(f.overlays, overlay)
}

func (f *FakeSurface) SetBranding(branding display.Branding) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.brandings = append(f.brandings, branding)
}

func (f *FakeSurface) Ended() <-chan display.Slot {
	return f.ended
}

// EmitEnded simulates a video reaching its natural end in the given slot.
func (f *FakeSurface) EmitEnded(slot display.Slot) {
	f.ended <- slot
}

func (f *FakeSurface) Applied() []AppliedFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AppliedFrame(nil), f.applied...)
}

func (f *FakeSurface) Shown() []display.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]display.Slot(nil), f.shown...)
}

func (f *FakeSurface) Overlays() []display.Overlay {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]display.Overlay(nil), f.overlays...)
}

func (f *FakeSurface) Brandings() []display.Branding {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]display.Branding(nil), f.brandings...)
}

// HasOverlay reports whether an overlay of the given kind was ever set.
func (f *FakeSurface) HasOverlay(kind display.OverlayKind) bool {
	for _, o := range f.Overlays() {
		if o.Kind == kind {
			return true
		}
	}
	return false
}
