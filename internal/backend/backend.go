package backend

import (
	"context"

	"github.com/loopin/signage-agent/internal/models"
)

// Client is the data-access contract the player core needs from the hosted
// backend. GetBinding returns (nil, nil) when the device has not been
// claimed yet; that is a normal state, not an error.
type Client interface {
	GetBinding(ctx context.Context, deviceID string) (*models.ScreenBinding, error)
	UpdateBinding(ctx context.Context, deviceID string, heartbeat models.Heartbeat) error
	GetPlaylistAssignments(ctx context.Context, playlistID string) ([]models.PlaylistAssignment, error)
	GetSettings(ctx context.Context, accountID string) (*models.Settings, error)
}

// ChangeNotifier is the push-style change notification channel. Delivery is
// at-least-once with no payload guarantees, so subscribers re-run a full
// sync on every event.
type ChangeNotifier interface {
	SubscribeChanges(deviceID string, callback func()) error
	UnsubscribeChanges(deviceID string) error
}
