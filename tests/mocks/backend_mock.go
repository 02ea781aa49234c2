package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/loopin/signage-agent/internal/models"
)

// MockBackendClient is a mock implementation of the backend.Client interface
type MockBackendClient struct {
	mock.Mock
}

func (m *MockBackendClient) GetBinding(ctx context.Context, deviceID string) (*models.ScreenBinding, error) {
	args := m.Called(ctx, deviceID)
	var binding *models.ScreenBinding
	if args.Get(0) != nil {
		binding = args.Get(0).(*models.ScreenBinding)
	}
	return binding, args.Error(1)
}

func (m *MockBackendClient) UpdateBinding(ctx context.Context, deviceID string, heartbeat models.Heartbeat) error {
	args := m.Called(ctx, deviceID, heartbeat)
	return args.Error(0)
}

func (m *MockBackendClient) GetPlaylistAssignments(ctx context.Context, playlistID string) ([]models.PlaylistAssignment, error) {
	args := m.Called(ctx, playlistID)
	var assignments []models.PlaylistAssignment
	if args.Get(0) != nil {
		assignments = args.Get(0).([]models.PlaylistAssignment)
	}
	return assignments, args.Error(1)
}

func (m *MockBackendClient) GetSettings(ctx context.Context, accountID string) (*models.Settings, error) {
	args := m.Called(ctx, accountID)
	var settings *models.Settings
	if args.Get(0) != nil {
		settings = args.Get(0).(*models.Settings)
	}
	return settings, args.Error(1)
}
