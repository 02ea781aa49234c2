package weather

// Built-in background assets used when the account has no override
// configured for a condition bucket.
const (
	defaultDayClear   = "https://assets.loopin.app/weather/day_clear.mp4"
	defaultDayClouds  = "https://assets.loopin.app/weather/day_clouds.mp4"
	defaultDayRain    = "https://assets.loopin.app/weather/day_rain.mp4"
	defaultDayStorm   = "https://assets.loopin.app/weather/day_storm.mp4"
	defaultNightClear = "https://assets.loopin.app/weather/night_clear.mp4"
	defaultNightRain  = "https://assets.loopin.app/weather/night_rain.mp4"
)

// Backgrounds maps condition buckets to operator-configured background
// asset URLs. Empty values fall back to built-in defaults.
type Backgrounds struct {
	DayClear   string `json:"day_clear"`
	DayClouds  string `json:"day_clouds"`
	DayRain    string `json:"day_rain"`
	DayStorm   string `json:"day_storm"`
	NightClear string `json:"night_clear"`
	NightRain  string `json:"night_rain"`
}

// SelectBackground maps an OpenWeatherMap condition code and day/night flag
// to a background asset URL, preferring the account's configured overrides.
// Buckets follow the condition-code ranges: 2xx thunderstorm, 3xx-6xx
// drizzle/rain/snow, 800 clear, everything else cloud cover.
func SelectBackground(code int, night bool, overrides Backgrounds) string {
	pick := func(override, fallback string) string {
		if override != "" {
			return override
		}
		return fallback
	}

	switch {
	case code >= 200 && code < 300:
		if night {
			return pick(overrides.NightRain, defaultNightRain)
		}
		return pick(overrides.DayStorm, defaultDayStorm)
	case code >= 300 && code < 700:
		if night {
			return pick(overrides.NightRain, defaultNightRain)
		}
		return pick(overrides.DayRain, defaultDayRain)
	case code == 800:
		if night {
			return pick(overrides.NightClear, defaultNightClear)
		}
		return pick(overrides.DayClear, defaultDayClear)
	default:
		if night {
			return pick(overrides.NightClear, defaultNightClear)
		}
		return pick(overrides.DayClouds, defaultDayClouds)
	}
}

// BackgroundOverrideURLs lists the configured override URLs so the playlist
// synchronizer can pre-fetch them alongside slide media.
func BackgroundOverrideURLs(overrides Backgrounds) []string {
	var urls []string
	for _, u := range []string{
		overrides.DayClear, overrides.DayClouds, overrides.DayRain,
		overrides.DayStorm, overrides.NightClear, overrides.NightRain,
	} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
