package display

import (
	"context"
	"time"
)

// Slot identifies one of the two playback buffers. Exactly one slot is
// visible at a time; the controller renders into the hidden slot and swaps.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

// Other returns the opposite buffer slot.
func (s Slot) Other() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

// FrameKind mirrors the slide kinds plus surface-only frames.
type FrameKind string

const (
	FrameImage   FrameKind = "image"
	FrameVideo   FrameKind = "video"
	FrameText    FrameKind = "text"
	FrameWeather FrameKind = "weather"
	FrameHTML    FrameKind = "html"
)

// WeatherCard is the fully resolved content of a weather frame.
type WeatherCard struct {
	City           string  `json:"city"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	TempC          float64 `json:"temp_c"`
	Humidity       float64 `json:"humidity"`
	WindSpeed      float64 `json:"wind_speed"`
	NoData         bool    `json:"no_data"`
	BackgroundURL  string  `json:"background_url"`
	BackgroundKind string  `json:"background_kind"` // "image" or "video"
}

// Frame is one renderer's output: everything a surface needs to present a
// slide, with remote assets already resolved to local handles where cached.
type Frame struct {
	Kind FrameKind `json:"kind"`

	// Source is the playable asset handle for image/video frames.
	Source string `json:"source,omitempty"`

	Text        string `json:"text,omitempty"`
	TextColor   string `json:"text_color,omitempty"`
	Background  string `json:"background,omitempty"`
	ScrollSpeed int    `json:"scroll_speed,omitempty"`

	HTML string `json:"html,omitempty"`

	Weather *WeatherCard `json:"weather,omitempty"`

	// Duration is informational for surfaces; advance timing is owned by
	// the playback controller.
	Duration time.Duration `json:"duration,omitempty"`
}

// OverlayKind classifies full-screen states shown outside the playback
// buffers.
type OverlayKind string

const (
	OverlayNone    OverlayKind = "none"
	OverlayPairing OverlayKind = "pairing"
	OverlayLoading OverlayKind = "loading"
	OverlayOffline OverlayKind = "offline"
)

// Overlay is a full-screen state such as the pairing code or the "waiting
// for content" notice. OverlayNone hides it.
type Overlay struct {
	Kind OverlayKind `json:"kind"`
	Text string      `json:"text,omitempty"`
}

// Branding is the account's visual identity, applied to the kiosk chrome
// around the playback slots.
type Branding struct {
	OrganizationName string `json:"organization_name,omitempty"`
	LogoURL          string `json:"logo_url,omitempty"`
	PrimaryColor     string `json:"primary_color,omitempty"`
	SecondaryColor   string `json:"secondary_color,omitempty"`
}

// Surface is the output device owned by the playback controller. Apply
// populates a hidden slot and blocks until the content signals readiness or
// failure; Show performs the visible/hidden swap; Clear releases the slot's
// resources. SetBranding restyles the surface chrome. Ended delivers
// natural end-of-media notifications for video frames.
type Surface interface {
	Apply(ctx context.Context, slot Slot, frame Frame) error
	Show(slot Slot)
	Clear(slot Slot)
	SetOverlay(overlay Overlay)
	SetBranding(branding Branding)
	Ended() <-chan Slot
}
