package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WarenOdhiambo1/oddsengine/internal/engine/ensemble"
)

func trainedArtifact(t *testing.T, version string) *ensemble.Artifact {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]ensemble.Sample, 60)
	for i := range samples {
		label := i % ensemble.NumClasses
		samples[i] = ensemble.Sample{
			MatchID:  "m",
			Kickoff:  base.Add(time.Duration(i) * time.Hour),
			Features: []float64{float64(1 - label), float64(label)},
			Label:    label,
		}
	}
	members := []ensemble.MemberSpec{{
		Name: "a",
		Config: ensemble.Config{
			Rounds: 10, MaxDepth: 2, LearningRate: 0.3,
			MinLeaf: 2, SubsampleRows: 1, SubsampleCols: 1, Seed: 7,
		},
	}}
	art, err := ensemble.Train(samples, []string{"f0", "f1"}, members, version, base)
	require.NoError(t, err)
	return art
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ctx := context.Background()

	art := trainedArtifact(t, "v1_100")
	path, err := store.Save(ctx, art)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, art.Version, loaded.Version)
	assert.Equal(t, art.Schema, loaded.Schema)
	assert.Equal(t, art.Weights, loaded.Weights)
	assert.Equal(t, len(art.Members[0].Model.Trees), len(loaded.Members[0].Model.Trees))
}

func TestStore_NoModel(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadCurrent(context.Background())
	assert.ErrorIs(t, err, ensemble.ErrModelUnavailable)
}

func TestStore_PointerFollowsLatestSave(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ctx := context.Background()

	first := trainedArtifact(t, "v1_100")
	_, err := store.Save(ctx, first)
	require.NoError(t, err)

	second := trainedArtifact(t, "v1_200")
	_, err = store.Save(ctx, second)
	require.NoError(t, err)

	// A fresh store reads the pointer from disk, not the write cache.
	loaded, err := NewStore(dir).LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1_200", loaded.Version)

	// The older artifact file stays on disk for rollback.
	assert.FileExists(t, filepath.Join(dir, "ensemble_v1_100.json"))
}

func TestStore_RejectsCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ctx := context.Background()

	_, err := store.Save(ctx, trainedArtifact(t, "v1_100"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ensemble_v1_100.json"), []byte("{not json"), 0o644))

	_, err = NewStore(dir).LoadCurrent(ctx)
	assert.Error(t, err)
}
