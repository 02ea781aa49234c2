package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/backend"
	"github.com/loopin/signage-agent/internal/display"
	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/internal/store"
	"github.com/loopin/signage-agent/pkg/identity"
)

// PairedChecker reports whether the device has been bound to an account.
type PairedChecker interface {
	IsPaired() bool
}

// SyncRequester queues a playlist sync. SyncService satisfies this.
type SyncRequester interface {
	RequestSync()
}

// PairingService polls the backend until an operator binds this device's
// pairing code to an account, showing the code on-screen meanwhile.
// UNPAIRED is the initial state; PAIRED is terminal for the process
// lifetime. Backend errors while unpaired mean "not bound yet", never a
// crash.
type PairingService struct {
	pollInterval time.Duration
	deviceInfo   identity.DeviceInfoInterface
	backend      backend.Client
	connectivity OnlineChecker
	snapshots    *store.SnapshotStore
	surface      display.Surface
	sync         SyncRequester
	logger       zerolog.Logger

	// bootstrap hands control to the playback side. Guarded so a timer
	// tick and a push event firing together can never start playback
	// twice. The binding is nil on an offline cache-only boot.
	bootstrap     func(binding *models.ScreenBinding)
	bootstrapOnce sync.Once

	mu     sync.Mutex
	paired bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPairingService initializes a new PairingService.
func NewPairingService(pollInterval time.Duration, deviceInfo identity.DeviceInfoInterface,
	backendClient backend.Client, connectivity OnlineChecker, snapshots *store.SnapshotStore,
	surface display.Surface, sync SyncRequester, bootstrap func(*models.ScreenBinding),
	logger zerolog.Logger) *PairingService {

	return &PairingService{
		pollInterval: pollInterval,
		deviceInfo:   deviceInfo,
		backend:      backendClient,
		connectivity: connectivity,
		snapshots:    snapshots,
		surface:      surface,
		sync:         sync,
		bootstrap:    bootstrap,
		logger:       logger,
	}
}

// IsPaired reports whether a binding has been observed.
func (p *PairingService) IsPaired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paired
}

// Start launches the pairing poll loop.
func (p *PairingService) Start() error {
	if p.ctx != nil {
		p.logger.Warn().Msg("PairingService is already running")
		return errors.New("pairing service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runPollLoop()
	}()

	p.logger.Info().Str("device_id", p.deviceInfo.GetDeviceID()).Msg("PairingService started successfully")
	return nil
}

// Stop gracefully stops the pairing service.
func (p *PairingService) Stop() error {
	if p.ctx == nil {
		p.logger.Warn().Msg("PairingService is not running")
		return errors.New("pairing service is not running")
	}

	p.cancel()
	p.wg.Wait()

	p.ctx = nil
	p.cancel = nil

	p.logger.Info().Msg("PairingService stopped successfully")
	return nil
}

// runPollLoop attempts immediately, then on every poll interval until a
// binding is found.
func (p *PairingService) runPollLoop() {
	if p.attempt() {
		return
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if p.attempt() {
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// attempt runs one pairing check and reports whether the terminal PAIRED
// state was reached.
func (p *PairingService) attempt() bool {
	deviceID := p.deviceInfo.GetDeviceID()

	if !p.connectivity.IsOnline() {
		// A previously paired and synced device must keep playing with
		// no connectivity at all: boot straight from the cached
		// snapshot and resume pairing when the network returns.
		if p.snapshots.HasSnapshot() {
			p.logger.Warn().Msg("Offline at boot, starting playback from cached snapshot")
			p.invokeBootstrap(nil)
		} else {
			p.logger.Warn().Msg("Offline and no cached snapshot, waiting for connectivity")
		}
		return false
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.pollInterval)
	defer cancel()

	binding, err := p.backend.GetBinding(ctx, deviceID)
	if err != nil {
		// Transient backend trouble is indistinguishable from "not
		// bound yet" for our purposes; keep showing the code and retry.
		p.logger.Warn().Err(err).Msg("Pairing check failed, will retry")
		p.showPairingCode(deviceID)
		return false
	}

	if !binding.Bound() {
		p.logger.Info().Str("device_id", deviceID).Msg("Screen not bound yet, showing pairing code")
		p.showPairingCode(deviceID)
		return false
	}

	p.mu.Lock()
	p.paired = true
	p.mu.Unlock()

	p.logger.Info().
		Str("account_id", binding.AccountID).
		Str("playlist_id", binding.PlaylistID).
		Msg("Screen bound to account")

	p.surface.SetOverlay(display.Overlay{Kind: display.OverlayNone})
	p.invokeBootstrap(binding)

	// An offline boot consumes the bootstrap before pairing completes, so a
	// fresh sync is queued here too. Otherwise a device that booted from
	// the cached snapshot keeps stale content until the next sync tick.
	if p.sync != nil {
		p.sync.RequestSync()
	}
	return true
}

func (p *PairingService) showPairingCode(deviceID string) {
	p.surface.SetOverlay(display.Overlay{Kind: display.OverlayPairing, Text: deviceID})
}

// invokeBootstrap hands off to playback exactly once.
func (p *PairingService) invokeBootstrap(binding *models.ScreenBinding) {
	p.bootstrapOnce.Do(func() {
		p.bootstrap(binding)
	})
}
