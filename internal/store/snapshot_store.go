package store

import (
	"github.com/rs/zerolog"

	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/pkg/file"
)

// SnapshotStore persists the last accepted playlist snapshot so a
// previously synced device can boot and keep playing with no connectivity.
type SnapshotStore struct {
	path    string
	fileOps file.FileOperations
	logger  zerolog.Logger
}

// NewSnapshotStore creates a store backed by the given file path.
func NewSnapshotStore(path string, fileOps file.FileOperations, logger zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{
		path:    path,
		fileOps: fileOps,
		logger:  logger,
	}
}

// Save writes the snapshot to durable storage.
func (s *SnapshotStore) Save(snapshot *models.PlaylistSnapshot) error {
	return s.fileOps.WriteJsonFile(s.path, snapshot)
}

// Load returns the persisted snapshot, or (nil, nil) when none has ever
// been accepted.
func (s *SnapshotStore) Load() (*models.PlaylistSnapshot, error) {
	exists, err := s.fileOps.IsFileExists(s.path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var snapshot models.PlaylistSnapshot
	if err := s.fileOps.ReadJsonFile(s.path, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// HasSnapshot reports whether a snapshot has ever been persisted.
func (s *SnapshotStore) HasSnapshot() bool {
	exists, err := s.fileOps.IsFileExists(s.path)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stat snapshot file")
		return false
	}
	return exists
}
