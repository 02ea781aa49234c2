package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/internal/services"
	"github.com/loopin/signage-agent/internal/store"
	"github.com/loopin/signage-agent/pkg/assetcache"
	"github.com/loopin/signage-agent/pkg/file"
	"github.com/loopin/signage-agent/tests/mocks"
)

type syncFixture struct {
	backend      *mocks.MockBackendClient
	notifier     *mocks.FakeNotifier
	online       *mocks.StubOnlineChecker
	sink         *mocks.FakePlaybackSink
	surface      *mocks.FakeSurface
	snapshots    *store.SnapshotStore
	snapshotPath string
	settings     *services.SettingsStore
	service      *services.SyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	logger := zerolog.Nop()
	deviceInfo := new(mocks.MockDeviceInfo)
	deviceInfo.On("GetDeviceID").Return("SCRN-AB12CD")

	cache, err := assetcache.NewAssetCache(t.TempDir(), time.Second, logger)
	assert.NoError(t, err)

	snapshotPath := filepath.Join(t.TempDir(), "playlist.json")
	f := &syncFixture{
		backend:      new(mocks.MockBackendClient),
		notifier:     &mocks.FakeNotifier{},
		online:       mocks.NewStubOnlineChecker(true),
		sink:         &mocks.FakePlaybackSink{},
		surface:      mocks.NewFakeSurface(),
		snapshots:    store.NewSnapshotStore(snapshotPath, file.NewFileService(), logger),
		snapshotPath: snapshotPath,
		settings:     services.NewSettingsStore(),
	}

	f.service = services.NewSyncService(time.Hour, deviceInfo, f.backend, f.notifier,
		cache, f.snapshots, f.sink, f.surface, f.online, f.settings, logger)
	return f
}

func boundBinding() *models.ScreenBinding {
	return &models.ScreenBinding{
		ID:         "screen-1",
		DeviceID:   "SCRN-AB12CD",
		AccountID:  "acct-1",
		PlaylistID: "pl-1",
	}
}

func imageAssignment(order int, assetURL string) models.PlaylistAssignment {
	return models.PlaylistAssignment{
		OrderIndex: order,
		Media: &models.MediaRef{
			ID:              "m-" + assetURL,
			Name:            "img",
			AssetURL:        assetURL,
			MediaKind:       "image",
			DefaultDuration: 10,
		},
	}
}

func tickerAssignment(order int, text string) models.PlaylistAssignment {
	cfg, _ := json.Marshal(map[string]any{"text": text})
	return models.PlaylistAssignment{
		OrderIndex: order,
		Duration:   15,
		Widget: &models.WidgetRef{
			ID:            "w-" + text,
			Name:          text,
			ContentType:   "ticker",
			Configuration: cfg,
		},
	}
}

// TestSyncService_AcceptsAndPersistsSnapshot tests the full happy path: a
// bound screen's playlist is fetched, normalized, handed to playback, and
// persisted for offline boots.
func TestSyncService_AcceptsAndPersistsSnapshot(t *testing.T) {
	f := newSyncFixture(t)

	f.backend.On("GetBinding", mock.Anything, "SCRN-AB12CD").Return(boundBinding(), nil)
	f.backend.On("GetSettings", mock.Anything, "acct-1").Return(&models.Settings{OrganizationName: "Loopin"}, nil)
	f.backend.On("GetPlaylistAssignments", mock.Anything, "pl-1").
		Return([]models.PlaylistAssignment{tickerAssignment(0, "hello")}, nil)

	assert.NoError(t, f.service.Start())
	defer f.service.Stop()

	assert.Eventually(t, func() bool {
		return len(f.sink.Snapshots()) == 1
	}, time.Second, 5*time.Millisecond)

	snapshot := f.sink.Snapshots()[0]
	assert.Equal(t, "pl-1", snapshot.PlaylistID)
	assert.Len(t, snapshot.Slides, 1)
	assert.Equal(t, models.SlideKindText, snapshot.Slides[0].Kind)
	assert.Equal(t, "hello", snapshot.Slides[0].Text)

	assert.True(t, f.snapshots.HasSnapshot())
	assert.Equal(t, "Loopin", f.settings.Settings().OrganizationName)
}

// TestSyncService_UnchangedPlaylistNotReapplied tests that a re-fetch of
// structurally identical content is suppressed before reaching playback:
// nothing is re-downloaded and the persisted snapshot is left untouched.
func TestSyncService_UnchangedPlaylistNotReapplied(t *testing.T) {
	var downloads atomic.Int32
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		downloads.Add(1)
		w.Write([]byte("image-bytes"))
	}))
	defer assets.Close()

	f := newSyncFixture(t)

	f.backend.On("GetBinding", mock.Anything, "SCRN-AB12CD").Return(boundBinding(), nil)
	f.backend.On("GetSettings", mock.Anything, "acct-1").Return(&models.Settings{}, nil)
	f.backend.On("GetPlaylistAssignments", mock.Anything, "pl-1").
		Return([]models.PlaylistAssignment{
			imageAssignment(0, assets.URL+"/img.jpg"),
			tickerAssignment(1, "hello"),
		}, nil)

	assert.NoError(t, f.service.Start())
	defer f.service.Stop()

	assert.Eventually(t, func() bool {
		return len(f.sink.Snapshots()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), downloads.Load())

	persisted, err := os.ReadFile(f.snapshotPath)
	assert.NoError(t, err)
	stat, err := os.Stat(f.snapshotPath)
	assert.NoError(t, err)

	f.service.RequestSync()
	time.Sleep(50 * time.Millisecond)

	// Identical content: no re-apply, no re-download, no re-persist.
	assert.Len(t, f.sink.Snapshots(), 1)
	assert.Equal(t, int32(1), downloads.Load())

	persistedAfter, err := os.ReadFile(f.snapshotPath)
	assert.NoError(t, err)
	assert.Equal(t, persisted, persistedAfter)
	statAfter, err := os.Stat(f.snapshotPath)
	assert.NoError(t, err)
	assert.Equal(t, stat.ModTime(), statAfter.ModTime())
}

// TestSyncService_BrandingForwardedToSurface tests that synced account
// settings restyle the surface, and that an unchanged identity is not
// pushed twice.
func TestSyncService_BrandingForwardedToSurface(t *testing.T) {
	f := newSyncFixture(t)

	f.backend.On("GetBinding", mock.Anything, "SCRN-AB12CD").Return(boundBinding(), nil)
	f.backend.On("GetSettings", mock.Anything, "acct-1").Return(&models.Settings{
		OrganizationName:    "Loopin",
		OrganizationLogoURL: "https://cdn/logo.png",
		PrimaryColor:        "#102030",
		SecondaryColor:      "#a0b0c0",
	}, nil)
	f.backend.On("GetPlaylistAssignments", mock.Anything, "pl-1").
		Return([]models.PlaylistAssignment{tickerAssignment(0, "hello")}, nil)

	assert.NoError(t, f.service.Start())
	defer f.service.Stop()

	assert.Eventually(t, func() bool {
		return len(f.surface.Brandings()) == 1
	}, time.Second, 5*time.Millisecond)

	branding := f.surface.Brandings()[0]
	assert.Equal(t, "Loopin", branding.OrganizationName)
	assert.Equal(t, "https://cdn/logo.png", branding.LogoURL)
	assert.Equal(t, "#102030", branding.PrimaryColor)
	assert.Equal(t, "#a0b0c0", branding.SecondaryColor)

	// A re-sync with the same settings must not re-push the branding.
	f.service.RequestSync()
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.surface.Brandings(), 1)
}

// TestSyncService_PushNotificationTriggersSync tests that a change
// notification re-syncs immediately and picks up new content.
func TestSyncService_PushNotificationTriggersSync(t *testing.T) {
	f := newSyncFixture(t)

	f.backend.On("GetBinding", mock.Anything, "SCRN-AB12CD").Return(boundBinding(), nil)
	f.backend.On("GetSettings", mock.Anything, "acct-1").Return(&models.Settings{}, nil)
	f.backend.On("GetPlaylistAssignments", mock.Anything, "pl-1").
		Return([]models.PlaylistAssignment{tickerAssignment(0, "hello")}, nil).Once()
	f.backend.On("GetPlaylistAssignments", mock.Anything, "pl-1").
		Return([]models.PlaylistAssignment{tickerAssignment(0, "updated")}, nil)

	assert.NoError(t, f.service.Start())
	defer f.service.Stop()

	assert.Eventually(t, func() bool {
		return len(f.sink.Snapshots()) == 1
	}, time.Second, 5*time.Millisecond)

	f.notifier.Notify()

	assert.Eventually(t, func() bool {
		snapshots := f.sink.Snapshots()
		return len(snapshots) == 2 && snapshots[1].Slides[0].Text == "updated"
	}, time.Second, 5*time.Millisecond)
}

// TestSyncService_OfflineSkipsSync tests that no backend call is made
// while the device is offline.
func TestSyncService_OfflineSkipsSync(t *testing.T) {
	f := newSyncFixture(t)
	f.online.SetOnline(false)

	assert.NoError(t, f.service.Start())
	defer f.service.Stop()

	time.Sleep(50 * time.Millisecond)
	f.backend.AssertNotCalled(t, "GetBinding", mock.Anything, mock.Anything)
	assert.Empty(t, f.sink.Snapshots())
}

// TestSyncService_NoPlaylistAssigned tests that a bound screen with no
// playlist leaves the current content alone.
func TestSyncService_NoPlaylistAssigned(t *testing.T) {
	f := newSyncFixture(t)

	binding := boundBinding()
	binding.PlaylistID = ""
	f.backend.On("GetBinding", mock.Anything, "SCRN-AB12CD").Return(binding, nil)
	f.backend.On("GetSettings", mock.Anything, "acct-1").Return(&models.Settings{}, nil)

	assert.NoError(t, f.service.Start())
	defer f.service.Stop()

	time.Sleep(50 * time.Millisecond)
	f.backend.AssertNotCalled(t, "GetPlaylistAssignments", mock.Anything, mock.Anything)
	assert.Empty(t, f.sink.Snapshots())
}

// TestSyncService_BackendErrorRetriesLater tests that a failed fetch keeps
// the current content and does not crash the loop.
func TestSyncService_BackendErrorRetriesLater(t *testing.T) {
	f := newSyncFixture(t)

	f.backend.On("GetBinding", mock.Anything, "SCRN-AB12CD").
		Return(nil, errors.New("backend unavailable")).Once()
	f.backend.On("GetBinding", mock.Anything, "SCRN-AB12CD").Return(boundBinding(), nil)
	f.backend.On("GetSettings", mock.Anything, "acct-1").Return(&models.Settings{}, nil)
	f.backend.On("GetPlaylistAssignments", mock.Anything, "pl-1").
		Return([]models.PlaylistAssignment{tickerAssignment(0, "hello")}, nil)

	assert.NoError(t, f.service.Start())
	defer f.service.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.sink.Snapshots())

	f.service.RequestSync()
	assert.Eventually(t, func() bool {
		return len(f.sink.Snapshots()) == 1
	}, time.Second, 5*time.Millisecond)
}
