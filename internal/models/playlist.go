package models

import "encoding/json"

// MediaRef is a campaign media record referenced by a playlist assignment.
type MediaRef struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	AssetURL        string `json:"media_url"`
	MediaKind       string `json:"media_type"` // "image" or "video"
	DefaultDuration int    `json:"duration_seconds"`
}

// WidgetRef is a dynamic-content widget record referenced by a playlist
// assignment. Configuration is a typed payload keyed by ContentType.
type WidgetRef struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ContentType   string          `json:"content_type"`
	Configuration json.RawMessage `json:"configuration"`
}

// PlaylistAssignment is one ordered entry of a playlist, pointing at either
// a campaign media record or a widget record. Duration is a per-assignment
// override in seconds; zero means "use the record's default".
type PlaylistAssignment struct {
	OrderIndex int        `json:"display_order"`
	Duration   int        `json:"duration"`
	Media      *MediaRef  `json:"campaigns,omitempty"`
	Widget     *WidgetRef `json:"dynamic_contents,omitempty"`
}
