package utils

import (
	"time"

	"github.com/loopin/signage-agent/pkg/file"
)

// Config represents the structure of the configuration file. Interval and
// timeout fields hold whole seconds and are multiplied out at wiring time.
type Config struct {
	Backend struct {
		URL            string        `yaml:"url"`             // Hosted backend base URL
		APIKey         string        `yaml:"api_key"`         // Backend API key (overridable via environment)
		RequestTimeout time.Duration `yaml:"request_timeout"` // Per-request timeout (in seconds)
	} `yaml:"backend"`

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Optional path to the CA certificate
		TopicPrefix   string `yaml:"topic_prefix"`   // Root topic for change notifications
		QOS           int    `yaml:"qos"`            // MQTT QoS level for change notifications
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Storage struct {
		CacheDirectory string        `yaml:"cache_directory"` // Asset cache directory
		SnapshotFile   string        `yaml:"snapshot_file"`   // Persisted playlist snapshot path
		FetchTimeout   time.Duration `yaml:"fetch_timeout"`   // Per-asset download timeout (in seconds)
	} `yaml:"storage"`

	Display struct {
		Mode          string        `yaml:"mode"`           // "kiosk" or "console"
		ListenAddress string        `yaml:"listen_address"` // Kiosk bridge listen address
		ReadyTimeout  time.Duration `yaml:"ready_timeout"`  // Max wait for slide content readiness (in seconds)
		ClearDelay    time.Duration `yaml:"clear_delay"`    // Delay before the hidden slot is cleared (in seconds)
	} `yaml:"display"`

	Weather struct {
		APIURL         string        `yaml:"api_url"`         // Weather API endpoint, empty for the default
		RequestTimeout time.Duration `yaml:"request_timeout"` // Weather request timeout (in seconds)
	} `yaml:"weather"`

	Services struct {
		Pairing struct {
			PollInterval time.Duration `yaml:"poll_interval"` // Interval between pairing checks (in seconds)
		} `yaml:"pairing"`

		Sync struct {
			Interval time.Duration `yaml:"interval"` // Interval between playlist syncs (in seconds)
		} `yaml:"sync"`

		Playback struct {
			EmptyRetryInterval time.Duration `yaml:"empty_retry_interval"` // Retry delay while waiting for content (in seconds)
			WatchdogTimeout    time.Duration `yaml:"watchdog_timeout"`     // Restart after this long with no slide advance (in seconds)
		} `yaml:"playback"`

		Heartbeat struct {
			Enabled  bool          `yaml:"enabled"`  // Enable/disable heartbeat service
			Interval time.Duration `yaml:"interval"` // Interval between heartbeats (in seconds)
		} `yaml:"heartbeat"`

		Connectivity struct {
			ProbeURL string        `yaml:"probe_url"` // URL probed for connectivity, defaults to the backend URL
			Interval time.Duration `yaml:"interval"`  // Interval between probes (in seconds)
			Timeout  time.Duration `yaml:"timeout"`   // Per-probe timeout (in seconds)
		} `yaml:"connectivity"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}
	return &config, nil
}
