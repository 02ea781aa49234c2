package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/backend"
	"github.com/loopin/signage-agent/internal/display"
	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/internal/renderers"
	"github.com/loopin/signage-agent/internal/service_registry"
	"github.com/loopin/signage-agent/internal/services"
	"github.com/loopin/signage-agent/internal/store"
	"github.com/loopin/signage-agent/internal/utils"
	"github.com/loopin/signage-agent/pkg/assetcache"
	"github.com/loopin/signage-agent/pkg/file"
	"github.com/loopin/signage-agent/pkg/identity"
	"github.com/loopin/signage-agent/pkg/mqtt"
	"github.com/loopin/signage-agent/pkg/weather"
)

func main() {
	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Secrets may come from a .env file next to the binary
	_ = godotenv.Load()

	fileClient := file.NewFileService()

	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	applyEnvOverrides(config)

	// Load or generate the device's stable pairing code
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device identity")
	}
	logger.Info().Str("device_id", deviceInfo.GetDeviceID()).Msg("Device identity ready")

	backendClient := backend.NewRestClient(
		config.Backend.URL,
		config.Backend.APIKey,
		config.Backend.RequestTimeout*time.Second,
		logger,
	)

	cache, err := assetcache.NewAssetCache(config.Storage.CacheDirectory, config.Storage.FetchTimeout*time.Second, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize asset cache")
	}

	snapshots := store.NewSnapshotStore(config.Storage.SnapshotFile, fileClient, logger)
	settings := services.NewSettingsStore()
	weatherClient := weather.NewClient(config.Weather.APIURL, config.Weather.RequestTimeout*time.Second, logger)

	// Output surface: websocket bridge to the kiosk page, or console for
	// headless development
	var surface display.Surface
	if config.Display.Mode == "console" {
		surface = display.NewConsoleSurface(logger)
	} else {
		kiosk := display.NewKioskSurface(config.Display.ListenAddress, config.Display.ReadyTimeout*time.Second, logger)
		if err := kiosk.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start kiosk bridge")
		}
		defer kiosk.Stop()
		surface = kiosk
	}

	// Push change-notification channel over the shared MQTT connection.
	// The agent still works without it, falling back to interval polling.
	var notifier backend.ChangeNotifier
	var mqttClient *mqtt.MqttService
	if config.MQTT.Broker != "" {
		mqttClient = mqtt.NewMqttService(fileClient)
		clientID := config.MQTT.ClientID + "-" + uuid.New().String()
		if err := mqttClient.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize MQTT connection, relying on polling")
			mqttClient = nil
		} else {
			notifier = backend.NewMQTTNotifier(config.MQTT.TopicPrefix, config.MQTT.QOS, mqttClient, logger)
		}
	}

	watchdog := services.NewWatchdog(config.Services.Playback.WatchdogTimeout*time.Second, nil, logger)
	rendererSet := renderers.NewRenderers(cache, weatherClient, settings, logger)
	playback := services.NewPlaybackService(
		surface,
		rendererSet,
		watchdog,
		config.Services.Playback.EmptyRetryInterval*time.Second,
		config.Display.ClearDelay*time.Second,
		logger,
	)

	probeURL := config.Services.Connectivity.ProbeURL
	if probeURL == "" {
		probeURL = config.Backend.URL
	}
	connectivity := services.NewConnectivityService(
		probeURL,
		config.Services.Connectivity.Interval*time.Second,
		config.Services.Connectivity.Timeout*time.Second,
		logger,
	)

	syncService := services.NewSyncService(
		config.Services.Sync.Interval*time.Second,
		deviceInfo,
		backendClient,
		notifier,
		cache,
		snapshots,
		playback,
		surface,
		connectivity,
		settings,
		logger,
	)

	serviceRegistry := service_registry.NewServiceRegistry(logger)

	// The playback group only comes up once pairing succeeds (or once an
	// offline boot finds a cached snapshot). The pairing service guards
	// this against double invocation.
	var pairing *services.PairingService
	bootstrap := func(binding *models.ScreenBinding) {
		if persisted, err := snapshots.Load(); err != nil {
			logger.Warn().Err(err).Msg("Failed to load persisted snapshot")
		} else if persisted != nil {
			playback.SetSnapshot(persisted)
		}

		if err := serviceRegistry.StartService("playback", playback); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start playback")
		}
		if err := serviceRegistry.StartService("sync", syncService); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start playlist sync")
		}

		if config.Services.Heartbeat.Enabled {
			heartbeat := services.NewHeartbeatService(
				config.Services.Heartbeat.Interval*time.Second,
				deviceInfo,
				backendClient,
				pairing,
				connectivity,
				logger,
			)
			if err := serviceRegistry.StartService("heartbeat", heartbeat); err != nil {
				logger.Error().Err(err).Msg("Failed to start heartbeat")
			}
		}
	}

	pairing = services.NewPairingService(
		config.Services.Pairing.PollInterval*time.Second,
		deviceInfo,
		backendClient,
		connectivity,
		snapshots,
		surface,
		syncService,
		bootstrap,
		logger,
	)

	// Connectivity transitions: offline surfaces an indicator and
	// suppresses network loops; coming back online re-syncs immediately.
	connectivity.OnOffline(func() {
		surface.SetOverlay(display.Overlay{Kind: display.OverlayOffline, Text: "Offline - playing cached content"})
	})
	connectivity.OnOnline(func() {
		surface.SetOverlay(display.Overlay{Kind: display.OverlayNone})
		// Queueing is safe even before pairing finishes: the sync loop only
		// drains the request once it is started, and syncs self-guard on
		// connectivity and binding state.
		syncService.RequestSync()
	})

	serviceRegistry.RegisterService("connectivity", connectivity)
	serviceRegistry.RegisterService("pairing", pairing)

	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Warn().Err(err).Msg("Some services did not stop cleanly")
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
}

// applyEnvOverrides lets deployment environments inject endpoint and
// credentials without editing the config file.
func applyEnvOverrides(config *utils.Config) {
	if v := os.Getenv("SIGNAGE_BACKEND_URL"); v != "" {
		config.Backend.URL = v
	}
	if v := os.Getenv("SIGNAGE_BACKEND_API_KEY"); v != "" {
		config.Backend.APIKey = v
	}
	if v := os.Getenv("SIGNAGE_MQTT_BROKER"); v != "" {
		config.MQTT.Broker = v
	}
}
