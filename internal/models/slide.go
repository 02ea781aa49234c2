package models

import (
	"encoding/json"
	"time"
)

// SlideKind is the closed set of renderable content kinds. It is assigned
// once, when backend records are normalized into slides, so renderer
// dispatch never has to branch on raw backend content-type strings.
type SlideKind string

const (
	SlideKindImage   SlideKind = "image"
	SlideKindVideo   SlideKind = "video"
	SlideKindText    SlideKind = "text"
	SlideKindWeather SlideKind = "weather"
	SlideKindHTML    SlideKind = "html"
)

// Slide is one normalized unit of playback content, projected from either a
// campaign media record or a dynamic-content widget record.
type Slide struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       SlideKind `json:"kind"`
	OrderIndex int       `json:"order_index"`

	// Duration is how long the slide stays visible. Ignored for video
	// slides, which always play to their natural end.
	Duration time.Duration `json:"duration"`

	// AssetURL is the remote media URL for image and video slides.
	AssetURL string `json:"asset_url,omitempty"`

	// Ticker configuration for text slides.
	Text        string `json:"text,omitempty"`
	TextColor   string `json:"text_color,omitempty"`
	Background  string `json:"background,omitempty"`
	ScrollSpeed int    `json:"scroll_speed,omitempty"`

	// City for weather slides.
	City string `json:"city,omitempty"`

	// Raw markup for html slides.
	HTML string `json:"html,omitempty"`
}

// PlaylistSnapshot is one immutable ordered slide list for a device. A
// snapshot is never mutated after construction; updates arrive as whole
// replacement snapshots.
type PlaylistSnapshot struct {
	PlaylistID string    `json:"playlist_id"`
	FetchedAt  time.Time `json:"fetched_at"`
	Slides     []Slide   `json:"slides"`
}

// Equal reports whether two snapshots carry structurally identical slide
// lists. Fetch timestamps are ignored so a re-fetch of unchanged content
// compares equal and is suppressed as a no-op update.
func (p *PlaylistSnapshot) Equal(other *PlaylistSnapshot) bool {
	if other == nil {
		return p == nil
	}
	a, err := json.Marshal(p.Slides)
	if err != nil {
		return false
	}
	b, err := json.Marshal(other.Slides)
	if err != nil {
		return false
	}
	return p.PlaylistID == other.PlaylistID && string(a) == string(b)
}

// AssetURLs returns the remote asset URLs referenced by the snapshot's
// slides, in playback order. Slides without media are skipped.
func (p *PlaylistSnapshot) AssetURLs() []string {
	var urls []string
	for _, s := range p.Slides {
		if s.AssetURL != "" {
			urls = append(urls, s.AssetURL)
		}
	}
	return urls
}
