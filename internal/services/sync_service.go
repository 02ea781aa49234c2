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
	"github.com/loopin/signage-agent/pkg/assetcache"
	"github.com/loopin/signage-agent/pkg/identity"
	"github.com/loopin/signage-agent/pkg/weather"
)

// PlaybackSink receives accepted playlist snapshots. The sink decides
// whether a snapshot goes live immediately or at the next wrap boundary.
type PlaybackSink interface {
	SetSnapshot(snapshot *models.PlaylistSnapshot)
}

// BrandingSink receives the account's visual identity whenever the synced
// settings change it. display.Surface satisfies this.
type BrandingSink interface {
	SetBranding(branding display.Branding)
}

// SyncService keeps the device's slide list in step with the backend. One
// loop consumes a single syncRequested signal fed by three producers (the
// interval ticker, push change notifications, connectivity-online
// transitions), so a timer tick and a push event can never race two
// overlapping syncs.
type SyncService struct {
	interval     time.Duration
	deviceInfo   identity.DeviceInfoInterface
	backend      backend.Client
	notifier     backend.ChangeNotifier
	cache        *assetcache.AssetCache
	snapshots    *store.SnapshotStore
	playback     PlaybackSink
	branding     BrandingSink
	connectivity OnlineChecker
	settings     *SettingsStore
	logger       zerolog.Logger

	syncRequested chan struct{}

	// accepted is the last snapshot that went live; re-fetches comparing
	// structurally equal are suppressed before any prefetch or re-render.
	accepted *models.PlaylistSnapshot

	// lastBranding suppresses repeat pushes of an unchanged identity.
	lastBranding *display.Branding

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncService initializes a new SyncService.
func NewSyncService(interval time.Duration, deviceInfo identity.DeviceInfoInterface,
	backendClient backend.Client, notifier backend.ChangeNotifier, cache *assetcache.AssetCache,
	snapshots *store.SnapshotStore, playback PlaybackSink, branding BrandingSink,
	connectivity OnlineChecker, settings *SettingsStore, logger zerolog.Logger) *SyncService {

	return &SyncService{
		interval:      interval,
		deviceInfo:    deviceInfo,
		backend:       backendClient,
		notifier:      notifier,
		cache:         cache,
		snapshots:     snapshots,
		playback:      playback,
		branding:      branding,
		connectivity:  connectivity,
		settings:      settings,
		logger:        logger,
		syncRequested: make(chan struct{}, 1),
	}
}

// RequestSync queues a sync. Requests collapse while one is pending.
func (s *SyncService) RequestSync() {
	select {
	case s.syncRequested <- struct{}{}:
	default:
	}
}

// Start seeds the dedupe state from the persisted snapshot, subscribes to
// push notifications, and launches the sync loop with an immediate first
// sync.
func (s *SyncService) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("SyncService is already running")
		return errors.New("sync service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	if persisted, err := s.snapshots.Load(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load persisted snapshot")
	} else {
		s.accepted = persisted
	}

	if s.notifier != nil {
		if err := s.notifier.SubscribeChanges(s.deviceInfo.GetDeviceID(), s.RequestSync); err != nil {
			// Push is an optimization over the interval; run without it.
			s.logger.Warn().Err(err).Msg("Failed to subscribe to change notifications, relying on polling")
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSyncLoop()
	}()
	s.RequestSync()

	s.logger.Info().Dur("interval", s.interval).Msg("SyncService started successfully")
	return nil
}

// Stop gracefully stops the sync service.
func (s *SyncService) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("SyncService is not running")
		return errors.New("sync service is not running")
	}

	if s.notifier != nil {
		if err := s.notifier.UnsubscribeChanges(s.deviceInfo.GetDeviceID()); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to unsubscribe from change notifications")
		}
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("SyncService stopped successfully")
	return nil
}

func (s *SyncService) runSyncLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.syncRequested:
			s.sync(s.ctx)
		case <-ticker.C:
			s.sync(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

// sync runs one full synchronization pass. Every failure here is
// transient-retry: logged and left for the next tick or push event.
func (s *SyncService) sync(ctx context.Context) {
	if !s.connectivity.IsOnline() {
		s.logger.Debug().Msg("Offline, skipping playlist sync")
		return
	}

	deviceID := s.deviceInfo.GetDeviceID()

	binding, err := s.backend.GetBinding(ctx, deviceID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to look up screen binding, will retry")
		return
	}
	if !binding.Bound() {
		s.logger.Warn().Msg("Screen binding disappeared, keeping current playlist")
		return
	}

	s.refreshSettings(ctx, binding.AccountID)

	if binding.PlaylistID == "" {
		// Nothing assigned: leave whatever is playing alone; a first
		// load sits in the waiting-for-content state.
		s.logger.Info().Msg("No playlist assigned to this screen")
		return
	}

	assignments, err := s.backend.GetPlaylistAssignments(ctx, binding.PlaylistID)
	if err != nil {
		s.logger.Warn().Err(err).Str("playlist_id", binding.PlaylistID).Msg("Failed to fetch playlist, will retry")
		return
	}

	snapshot := &models.PlaylistSnapshot{
		PlaylistID: binding.PlaylistID,
		FetchedAt:  time.Now(),
		Slides:     normalizeAssignments(assignments, s.logger),
	}

	if snapshot.Equal(s.accepted) {
		s.logger.Debug().Msg("Playlist unchanged, nothing to apply")
		return
	}

	// Pre-fetch every referenced asset before the snapshot goes live so
	// slides never show a loading gap. Weather background overrides ride
	// along because their slides resolve them at render time.
	urls := snapshot.AssetURLs()
	urls = append(urls, weather.BackgroundOverrideURLs(s.settings.Settings().WeatherBackgrounds)...)
	if logo := s.settings.Settings().OrganizationLogoURL; logo != "" {
		urls = append(urls, logo)
	}
	s.cache.Prefetch(ctx, urls)

	s.playback.SetSnapshot(snapshot)
	s.accepted = snapshot

	if err := s.snapshots.Save(snapshot); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist accepted snapshot")
	}

	s.logger.Info().
		Str("playlist_id", snapshot.PlaylistID).
		Int("slides", len(snapshot.Slides)).
		Msg("New playlist snapshot accepted")
}

// refreshSettings pulls the account settings; failures keep the previous
// values.
func (s *SyncService) refreshSettings(ctx context.Context, accountID string) {
	settings, err := s.backend.GetSettings(ctx, accountID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to fetch account settings")
		return
	}
	if settings != nil {
		s.settings.Update(*settings)
		s.pushBranding(*settings)
	}
}

// pushBranding forwards the account's visual identity to the surface when
// it changed since the last push. The logo resolves to a cached local
// handle when the pre-fetch already has it.
func (s *SyncService) pushBranding(settings models.Settings) {
	if s.branding == nil {
		return
	}

	branding := display.Branding{
		OrganizationName: settings.OrganizationName,
		LogoURL:          s.cache.Resolve(settings.OrganizationLogoURL),
		PrimaryColor:     settings.PrimaryColor,
		SecondaryColor:   settings.SecondaryColor,
	}
	if s.lastBranding != nil && branding == *s.lastBranding {
		return
	}
	s.lastBranding = &branding

	s.logger.Info().Str("organization", branding.OrganizationName).Msg("Account branding updated")
	s.branding.SetBranding(branding)
}
