package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/waveview/internal/config"
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

func testDatabase(t *testing.T) *Database {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "waveview.db")
	cfg.Storage.EnableWAL = false

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return db
}

func TestSaveTrackUpserts(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	track := &types.Track{Source: "/music/a.mp3", Name: "a.mp3", Length: 3 * time.Minute}
	require.NoError(t, db.SaveTrack(ctx, track))
	require.NoError(t, db.SaveTrack(ctx, track)) // reopening the same file

	tracks, err := db.GetTracks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "/music/a.mp3", tracks[0].Source)
	assert.Equal(t, 3*time.Minute, tracks[0].Length)
	assert.Equal(t, 1, tracks[0].Played)
}

func TestGetTracksOrderAndLimit(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	for _, source := range []string{"/a.wav", "/b.wav", "/c.wav"} {
		require.NoError(t, db.SaveTrack(ctx, &types.Track{Source: source, Name: source}))
	}

	tracks, err := db.GetTracks(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
}

func TestMarkerRoundTrip(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.SaveTrack(ctx, &types.Track{Source: "/a.flac", Name: "a.flac"}))

	late := &types.Marker{Source: "/a.flac", Time: 90 * time.Second, Label: "chorus"}
	early := &types.Marker{Source: "/a.flac", Time: 10 * time.Second}
	require.NoError(t, db.SaveMarker(ctx, late))
	require.NoError(t, db.SaveMarker(ctx, early))
	assert.NotZero(t, late.ID)
	assert.NotEqual(t, late.ID, early.ID)

	markers, err := db.GetMarkers(ctx, "/a.flac")
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, 10*time.Second, markers[0].Time)
	assert.Equal(t, 90*time.Second, markers[1].Time)
	assert.Equal(t, "chorus", markers[1].Label)

	other, err := db.GetMarkers(ctx, "/b.flac")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDeleteMarker(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.SaveTrack(ctx, &types.Track{Source: "/a.ogg", Name: "a.ogg"}))
	marker := &types.Marker{Source: "/a.ogg", Time: time.Second}
	require.NoError(t, db.SaveMarker(ctx, marker))

	require.NoError(t, db.DeleteMarker(ctx, marker.ID))

	markers, err := db.GetMarkers(ctx, "/a.ogg")
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestClosedDatabaseRejectsOperations(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "waveview.db")
	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close()) // idempotent

	assert.Error(t, db.SaveTrack(context.Background(), &types.Track{Source: "/x"}))
	_, err = db.GetMarkers(context.Background(), "/x")
	assert.Error(t, err)
}
