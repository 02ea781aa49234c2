package renderers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/display"
	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/pkg/assetcache"
	"github.com/loopin/signage-agent/pkg/weather"
)

// SettingsSource exposes the current account settings to renderers that
// need them. The playlist synchronizer keeps it fresh.
type SettingsSource interface {
	Settings() models.Settings
}

// Renderer turns one slide into a presentable frame. Renderers are pure:
// they resolve assets and fill content but never schedule advancement.
type Renderer interface {
	Render(ctx context.Context, slide models.Slide) (display.Frame, error)
}

// NewRenderers builds the dispatch table covering every slide kind. The
// normalizer guarantees slides only ever carry these kinds, so a missing
// entry at playback time is a programming error handled as a slide skip.
func NewRenderers(cache *assetcache.AssetCache, weatherClient *weather.Client,
	settings SettingsSource, logger zerolog.Logger) map[models.SlideKind]Renderer {

	return map[models.SlideKind]Renderer{
		models.SlideKindImage:   &ImageRenderer{cache: cache},
		models.SlideKindVideo:   &VideoRenderer{cache: cache},
		models.SlideKindText:    &TextRenderer{},
		models.SlideKindHTML:    &HTMLRenderer{},
		models.SlideKindWeather: &WeatherRenderer{
			client:   weatherClient,
			cache:    cache,
			settings: settings,
			logger:   logger,
		},
	}
}

// videoExtensions are the suffixes treated as video when classifying a
// resolved asset URL.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
}

// isVideoURL classifies an asset URL or local path by file extension.
func isVideoURL(assetURL string) bool {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(assetURL, "?", 2)[0]))
	return videoExtensions[ext]
}
