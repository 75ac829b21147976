package checkpoint

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newstrace/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleResult() *types.ScrapeResult {
	return &types.ScrapeResult{
		OutletName: "The Daily Probe",
		Website:    "https://dailyprobe.example",
		Profiles: []types.JournalistProfile{
			{Name: "Jane Doe", Beat: "World", LatestArticle: "Summit ends", PublicationDate: "2024-05-17", ArticlesCount: 3},
		},
		Reason: types.ReasonOK,
	}
}

func TestWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "data.json", testLogger)
	require.NoError(t, err)

	require.NoError(t, s.Write(sampleResult()))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "The Daily Probe", loaded.OutletName)
	require.Len(t, loaded.Profiles, 1)
	assert.Equal(t, 3, loaded.Profiles[0].ArticlesCount)
}

func TestWriteReplacesWholeDocument(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "data.json", testLogger)
	require.NoError(t, err)

	// Placeholder first, as at job start.
	require.NoError(t, s.Write(&types.ScrapeResult{
		OutletName: "The Daily Probe",
		Profiles:   []types.JournalistProfile{},
	}))
	require.NoError(t, s.Write(sampleResult()))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Profiles, 1)
	assert.Equal(t, types.ReasonOK, loaded.Reason)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "data.json", testLogger)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Write(sampleResult()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.json", entries[0].Name())
}

func TestCheckpointIsValidJSONAfterEveryWrite(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "data.json", testLogger)
	require.NoError(t, err)

	result := sampleResult()
	for i := 0; i < 3; i++ {
		result.Profiles = append(result.Profiles, types.JournalistProfile{
			Name: "Extra Writer", Beat: "Sports", LatestArticle: "s", ArticlesCount: i + 1,
		})
		require.NoError(t, s.Write(result))

		data, err := os.ReadFile(filepath.Join(dir, "data.json"))
		require.NoError(t, err)
		assert.True(t, json.Valid(data), "checkpoint must always parse")
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := New(t.TempDir(), "data.json", testLogger)
	require.NoError(t, err)

	_, err = s.Load()
	assert.True(t, os.IsNotExist(err))
}
