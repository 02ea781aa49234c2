package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/loopin/signage-agent/internal/models"
	"github.com/loopin/signage-agent/pkg/file"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	return NewSnapshotStore(filepath.Join(t.TempDir(), "playlist.json"), file.NewFileService(), zerolog.Nop())
}

func TestSnapshotStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	snapshot := &models.PlaylistSnapshot{
		PlaylistID: "pl-1",
		FetchedAt:  time.Now().UTC(),
		Slides: []models.Slide{
			{ID: "a", Kind: models.SlideKindImage, AssetURL: "https://cdn/a.jpg", Duration: 10 * time.Second},
			{ID: "b", Kind: models.SlideKindText, Text: "hello"},
		},
	}

	assert.NoError(t, s.Save(snapshot))
	assert.True(t, s.HasSnapshot())

	loaded, err := s.Load()
	assert.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Equal(t, "pl-1", loaded.PlaylistID)
	assert.True(t, snapshot.Equal(loaded))
}

func TestSnapshotStore_LoadWithoutSnapshot(t *testing.T) {
	s := newTestStore(t)

	assert.False(t, s.HasSnapshot())

	loaded, err := s.Load()
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSnapshotStore_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)

	assert.NoError(t, s.Save(&models.PlaylistSnapshot{PlaylistID: "pl-1"}))
	assert.NoError(t, s.Save(&models.PlaylistSnapshot{PlaylistID: "pl-2"}))

	loaded, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, "pl-2", loaded.PlaylistID)
}
