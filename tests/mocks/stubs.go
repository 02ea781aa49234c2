package mocks

import (
	"sync"
	"sync/atomic"

	"github.com/loopin/signage-agent/internal/models"
)

// StubOnlineChecker is a settable services.OnlineChecker.
type StubOnlineChecker struct {
	online atomic.Bool
}

func NewStubOnlineChecker(online bool) *StubOnlineChecker {
	s := &StubOnlineChecker{}
	s.online.Store(online)
	return s
}

func (s *StubOnlineChecker) IsOnline() bool { return s.online.Load() }
func (s *StubOnlineChecker) SetOnline(v bool) { s.online.Store(v) }

// StubPairedChecker is a settable services.PairedChecker.
type StubPairedChecker struct {
	paired atomic.Bool
}

func NewStubPairedChecker(paired bool) *StubPairedChecker {
	s := &StubPairedChecker{}
	s.paired.Store(paired)
	return s
}

func (s *StubPairedChecker) IsPaired() bool { return s.paired.Load() }
func (s *StubPairedChecker) SetPaired(v bool) { s.paired.Store(v) }

// StubSyncRequester counts services.SyncRequester calls.
type StubSyncRequester struct {
	requests atomic.Int32
}

func (s *StubSyncRequester) RequestSync() { s.requests.Add(1) }
func (s *StubSyncRequester) Requests() int32 { return s.requests.Load() }

// FakeNotifier is a backend.ChangeNotifier that captures the subscriber's
// callback so tests can simulate push change notifications.
type FakeNotifier struct {
	mu           sync.Mutex
	callback     func()
	SubscribeErr error
	unsubscribed bool
}

func (f *FakeNotifier) SubscribeChanges(_ string, callback func()) error {
	if f.SubscribeErr != nil {
		return f.SubscribeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = callback
	return nil
}

func (f *FakeNotifier) UnsubscribeChanges(_ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = true
	return nil
}

// Notify invokes the captured subscriber callback, if any.
func (f *FakeNotifier) Notify() {
	f.mu.Lock()
	cb := f.callback
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (f *FakeNotifier) Unsubscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

// FakePlaybackSink records snapshots handed over by the sync service.
type FakePlaybackSink struct {
	mu        sync.Mutex
	snapshots []*models.PlaylistSnapshot
}

func (f *FakePlaybackSink) SetSnapshot(snapshot *models.PlaylistSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snapshot)
}

func (f *FakePlaybackSink) Snapshots() []*models.PlaylistSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.PlaylistSnapshot(nil), f.snapshots...)
}
