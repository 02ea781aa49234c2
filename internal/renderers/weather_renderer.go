package renderers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/display"
	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/pkg/assetcache"
	"github.com/loopin/signage-agent/pkg/weather"
)

// clearDayCode is the condition used for background selection when no
// reading is available at all.
const clearDayCode = 800

// WeatherRenderer presents a current-conditions card with a condition-aware
// background. A failed API call falls back to the last cached reading; with
// no cached reading either, the card renders in its "no data" state rather
// than failing the slide.
type WeatherRenderer struct {
	client   *weather.Client
	cache    *assetcache.AssetCache
	settings SettingsSource
	logger   zerolog.Logger
}

// Render builds the weather frame.
func (r *WeatherRenderer) Render(ctx context.Context, slide models.Slide) (display.Frame, error) {
	settings := r.settings.Settings()

	city := slide.City
	if city == "" {
		city = settings.DefaultCity
	}

	card := display.WeatherCard{City: city}
	code := clearDayCode
	night := false

	reading, err := r.client.Current(ctx, city, settings.WeatherAPIKey)
	if err != nil {
		r.logger.Warn().Err(err).Str("city", city).Msg("Weather fetch failed, trying cached reading")
		cached, ok := r.client.LastReading(city)
		if !ok {
			card.NoData = true
		} else {
			reading = cached
		}
	}

	if !card.NoData {
		card.Description = reading.Description
		card.Icon = reading.Icon
		card.TempC = reading.TempC
		card.Humidity = reading.Humidity
		card.WindSpeed = reading.WindSpeed
		code = reading.ConditionCode
		night = reading.Night()
	}

	background := weather.SelectBackground(code, night, settings.WeatherBackgrounds)
	card.BackgroundURL = r.cache.Resolve(background)
	if isVideoURL(background) {
		card.BackgroundKind = "video"
	} else {
		card.BackgroundKind = "image"
	}

	return display.Frame{
		Kind:     display.FrameWeather,
		Weather:  &card,
		Duration: slide.Duration,
	}, nil
}
