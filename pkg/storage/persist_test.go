package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsvbatch/pkg/streetview"
)

func TestSaveLinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")

	links := []string{
		"https://example.com/streetview?location=a",
		"https://example.com/streetview?location=b",
	}

	require.NoError(t, SaveLinks(path, links))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/streetview?location=a\nhttps://example.com/streetview?location=b\n", string(data))
}

func TestSaveLinksOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")

	require.NoError(t, SaveLinks(path, []string{"old1", "old2", "old3"}))
	require.NoError(t, SaveLinks(path, []string{"new"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestSaveMetadataOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	records := []streetview.Record{
		{"status": "OK", "pano_id": "first"},
		{"status": "ZERO_RESULTS"},
	}

	require.NoError(t, SaveMetadata(path, records, false))

	loaded, err := LoadMetadata(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "first", loaded[0]["pano_id"])
	assert.Equal(t, "ZERO_RESULTS", loaded[1]["status"])
}

func TestSaveMetadataAppendConcatenates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	first := []streetview.Record{{"status": "OK", "pano_id": "a"}}
	second := []streetview.Record{{"status": "OK", "pano_id": "b"}}

	require.NoError(t, SaveMetadata(path, first, false))
	require.NoError(t, SaveMetadata(path, second, true))

	loaded, err := LoadMetadata(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a", loaded[0]["pano_id"])
	assert.Equal(t, "b", loaded[1]["pano_id"])
}

func TestSaveMetadataAppendMissingFile(t *testing.T) {
	// Append against a file that does not exist yet behaves like a plain write
	path := filepath.Join(t.TempDir(), "metadata.json")

	records := []streetview.Record{{"status": "OK"}}
	require.NoError(t, SaveMetadata(path, records, true))

	loaded, err := LoadMetadata(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestSaveMetadataAppendMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	err := SaveMetadata(path, []streetview.Record{{"status": "OK"}}, true)
	require.Error(t, err)

	// The broken file is left untouched for inspection
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "{broken", string(data))
}

func TestSaveMetadataEmptyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	require.NoError(t, SaveMetadata(path, []streetview.Record{}, false))

	loaded, err := LoadMetadata(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadMetadataMissingFile(t *testing.T) {
	_, err := LoadMetadata(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestMetadataRoundTripPreservesFileAnnotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	record := streetview.Record{"status": "OK"}
	record.SetFile("gsv_0.jpg")

	require.NoError(t, SaveMetadata(path, []streetview.Record{record}, false))

	loaded, err := LoadMetadata(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "gsv_0.jpg", loaded[0].File())
}
