package services

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/models"
)

// defaultSlideDuration applies when neither the assignment nor the record
// carries a duration.
const defaultSlideDuration = 10 * time.Second

// tickerConfig is the widget payload for text tickers.
type tickerConfig struct {
	Text       string `json:"text"`
	Speed      int    `json:"speed"`
	TextColor  string `json:"text_color"`
	Background string `json:"background"`
}

// weatherConfig is the widget payload for weather cards.
type weatherConfig struct {
	City string `json:"city"`
}

// htmlConfig is the widget payload for custom markup.
type htmlConfig struct {
	HTML string `json:"html"`
}

// normalizeAssignments projects the heterogeneous backend records into one
// slide list sorted by display order (stable, ties keep fetch order).
// Records that cannot produce a playable slide are dropped with a warning;
// one malformed entry never fails the whole playlist.
func normalizeAssignments(items []models.PlaylistAssignment, logger zerolog.Logger) []models.Slide {
	slides := make([]models.Slide, 0, len(items))

	for _, item := range items {
		var (
			slide models.Slide
			ok    bool
		)

		switch {
		case item.Media != nil:
			slide, ok = normalizeMedia(item, logger)
		case item.Widget != nil:
			slide, ok = normalizeWidget(item, logger)
		default:
			logger.Warn().Int("order", item.OrderIndex).Msg("Playlist entry references no content, dropping")
		}

		if ok {
			slides = append(slides, slide)
		}
	}

	sort.SliceStable(slides, func(i, j int) bool {
		return slides[i].OrderIndex < slides[j].OrderIndex
	})

	return slides
}

// normalizeMedia projects a campaign media record into an image or video
// slide.
func normalizeMedia(item models.PlaylistAssignment, logger zerolog.Logger) (models.Slide, bool) {
	media := item.Media
	if media.AssetURL == "" {
		logger.Warn().Str("campaign", media.Name).Msg("Campaign has no media URL, dropping")
		return models.Slide{}, false
	}

	kind := models.SlideKindImage
	if media.MediaKind == "video" || isVideoAsset(media.AssetURL) {
		kind = models.SlideKindVideo
	}

	duration := assignmentDuration(item.Duration, media.DefaultDuration)

	return models.Slide{
		ID:         media.ID,
		Name:       media.Name,
		Kind:       kind,
		OrderIndex: item.OrderIndex,
		Duration:   duration,
		AssetURL:   media.AssetURL,
	}, true
}

// normalizeWidget projects a dynamic-content record into a widget slide,
// classifying its content type once so playback never branches on backend
// strings.
func normalizeWidget(item models.PlaylistAssignment, logger zerolog.Logger) (models.Slide, bool) {
	widget := item.Widget

	slide := models.Slide{
		ID:         widget.ID,
		Name:       widget.Name,
		OrderIndex: item.OrderIndex,
		Duration:   assignmentDuration(item.Duration, 0),
	}

	switch strings.ToLower(widget.ContentType) {
	case "text", "ticker", "news":
		var cfg tickerConfig
		if err := json.Unmarshal(widget.Configuration, &cfg); err != nil || cfg.Text == "" {
			logger.Warn().Err(err).Str("widget", widget.Name).Msg("Invalid ticker configuration, dropping")
			return models.Slide{}, false
		}
		slide.Kind = models.SlideKindText
		slide.Text = cfg.Text
		slide.TextColor = cfg.TextColor
		slide.Background = cfg.Background
		slide.ScrollSpeed = cfg.Speed

	case "weather", "clima":
		var cfg weatherConfig
		if len(widget.Configuration) > 0 {
			if err := json.Unmarshal(widget.Configuration, &cfg); err != nil {
				logger.Warn().Err(err).Str("widget", widget.Name).Msg("Invalid weather configuration, dropping")
				return models.Slide{}, false
			}
		}
		slide.Kind = models.SlideKindWeather
		slide.City = cfg.City

	case "html":
		var cfg htmlConfig
		if err := json.Unmarshal(widget.Configuration, &cfg); err != nil || cfg.HTML == "" {
			logger.Warn().Err(err).Str("widget", widget.Name).Msg("Invalid html configuration, dropping")
			return models.Slide{}, false
		}
		slide.Kind = models.SlideKindHTML
		slide.HTML = cfg.HTML

	default:
		logger.Warn().
			Str("widget", widget.Name).
			Str("content_type", widget.ContentType).
			Msg("Unsupported widget content type, dropping")
		return models.Slide{}, false
	}

	return slide, true
}

// assignmentDuration resolves the per-assignment override, the record
// default, and the built-in default, in that order. Video slides carry the
// value but ignore it at playback.
func assignmentDuration(overrideSeconds, defaultSeconds int) time.Duration {
	if overrideSeconds > 0 {
		return time.Duration(overrideSeconds) * time.Second
	}
	if defaultSeconds > 0 {
		return time.Duration(defaultSeconds) * time.Second
	}
	return defaultSlideDuration
}

// isVideoAsset classifies a media URL by extension.
func isVideoAsset(assetURL string) bool {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(assetURL, "?", 2)[0]))
	return ext == ".mp4" || ext == ".webm" || ext == ".mov"
}
