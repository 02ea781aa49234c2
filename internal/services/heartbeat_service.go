package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"github.com/loopin/signage-agent/internal/backend"
	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/pkg/identity"
)

// HeartbeatService periodically writes the device's liveness and basic
// host stats to its screen binding. Failures are logged and swallowed; a
// missed heartbeat only shows the screen as stale in the console, it never
// disturbs playback.
type HeartbeatService struct {
	interval     time.Duration
	deviceInfo   identity.DeviceInfoInterface
	backend      backend.Client
	paired       PairedChecker
	connectivity OnlineChecker
	logger       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHeartbeatService initializes a new HeartbeatService.
func NewHeartbeatService(interval time.Duration, deviceInfo identity.DeviceInfoInterface,
	backendClient backend.Client, paired PairedChecker, connectivity OnlineChecker,
	logger zerolog.Logger) *HeartbeatService {

	return &HeartbeatService{
		interval:     interval,
		deviceInfo:   deviceInfo,
		backend:      backendClient,
		paired:       paired,
		connectivity: connectivity,
		logger:       logger,
	}
}

// Start launches the heartbeat loop in a separate goroutine.
func (h *HeartbeatService) Start() error {
	if h.ctx != nil {
		h.logger.Warn().Msg("HeartbeatService is already running")
		return errors.New("heartbeat service is already running")
	}

	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runHeartbeatLoop()
	}()

	h.logger.Info().Dur("interval", h.interval).Msg("HeartbeatService started successfully")
	return nil
}

// Stop gracefully stops the heartbeat service.
func (h *HeartbeatService) Stop() error {
	if h.ctx == nil {
		h.logger.Warn().Msg("HeartbeatService is not running")
		return errors.New("heartbeat service is not running")
	}

	h.cancel()
	h.wg.Wait()

	h.ctx = nil
	h.cancel = nil

	h.logger.Info().Msg("HeartbeatService stopped successfully")
	return nil
}

// runHeartbeatLoop sends heartbeats at the configured interval while the
// device is paired and online.
func (h *HeartbeatService) runHeartbeatLoop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.beat()
		case <-h.ctx.Done():
			return
		}
	}
}

// beat writes one heartbeat. Skipped silently while unpaired or offline.
func (h *HeartbeatService) beat() {
	if !h.paired.IsPaired() || !h.connectivity.IsOnline() {
		h.logger.Debug().Msg("Skipping heartbeat while unpaired or offline")
		return
	}

	heartbeat := models.Heartbeat{
		DeviceID:  h.deviceInfo.GetDeviceID(),
		Timestamp: time.Now(),
		Status:    models.StatusOnline,
	}

	if uptime, err := host.Uptime(); err == nil {
		heartbeat.UptimeSeconds = uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		heartbeat.MemoryUsedPct = vm.UsedPercent
	}

	ctx, cancel := context.WithTimeout(h.ctx, h.interval)
	defer cancel()

	if err := h.backend.UpdateBinding(ctx, heartbeat.DeviceID, heartbeat); err != nil {
		h.logger.Error().Err(err).Msg("Failed to publish heartbeat")
		return
	}
	h.logger.Debug().Msg("Heartbeat published successfully")
}
