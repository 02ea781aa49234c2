package models

import (
	"time"

	"github.com/loopin/signage-agent/pkg/weather"
)

// ScreenBinding is the backend-owned record that ties a device to an
// account and its assigned playlist. The player only ever writes the
// heartbeat fields; assignment is done from the admin console.
type ScreenBinding struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	AccountID  string    `json:"user_id"`
	PlaylistID string    `json:"active_playlist_id"`
	LastPing   time.Time `json:"last_ping"`
	Status     string    `json:"status"`
}

// Bound reports whether the device has been claimed by an account.
func (b *ScreenBinding) Bound() bool {
	return b != nil && b.ID != ""
}

// Heartbeat is the periodic liveness write from the device, enriched with
// basic host stats for remote diagnosis.
type Heartbeat struct {
	DeviceID      string    `json:"device_id"`
	Timestamp     time.Time `json:"last_ping"`
	Status        string    `json:"status"`
	UptimeSeconds uint64    `json:"uptime_seconds,omitempty"`
	MemoryUsedPct float64   `json:"memory_used_pct,omitempty"`
}

// Settings is the per-account configuration record. Read-only for the
// player; written from the admin console.
type Settings struct {
	OrganizationName    string              `json:"organization_name"`
	OrganizationLogoURL string              `json:"organization_logo_url"`
	PrimaryColor        string              `json:"primary_color"`
	SecondaryColor      string              `json:"secondary_color"`
	WeatherAPIKey       string              `json:"api_weather_key"`
	DefaultCity         string              `json:"default_city"`
	WeatherBackgrounds  weather.Backgrounds `json:"weather_backgrounds"`
}

// Device status values written with heartbeats.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)
