package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")

	manager, err := NewManager(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, 0, manager.NextIndex())
}

func TestNewManagerScansExistingFiles(t *testing.T) {
	dir := t.TempDir()

	// Gap at index 1: numbering continues past the highest index, gaps are
	// never reused
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gsv_0.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gsv_2.jpg"), []byte("x"), 0644))

	// Unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("[]"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gsv_abc.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other_5.jpg"), []byte("x"), 0644))

	manager, err := NewManager(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, manager.NextIndex())
}

func TestReserveIndexSequential(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 0, manager.ReserveIndex())
	assert.Equal(t, 1, manager.ReserveIndex())
	assert.Equal(t, 2, manager.ReserveIndex())
	assert.Equal(t, 3, manager.NextIndex())
}

func TestReserveIndexConcurrent(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	const n = 50
	indices := make([]int, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			indices[slot] = manager.ReserveIndex()
		}(i)
	}
	wg.Wait()

	// Every index handed out exactly once
	sort.Ints(indices)
	for i, index := range indices {
		assert.Equal(t, i, index)
	}
}

func TestImageFileName(t *testing.T) {
	assert.Equal(t, "gsv_0.jpg", ImageFileName(0))
	assert.Equal(t, "gsv_42.jpg", ImageFileName(42))
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	name, err := manager.SaveImage(bytes.NewReader(payload), 7)
	require.NoError(t, err)
	assert.Equal(t, "gsv_7.jpg", name)

	data, err := os.ReadFile(filepath.Join(dir, "gsv_7.jpg"))
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSaveImageThenRescan(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	index := manager.ReserveIndex()
	_, err = manager.SaveImage(bytes.NewReader([]byte("img")), index)
	require.NoError(t, err)

	// A fresh manager over the same directory picks up after the saved file
	fresh, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, index+1, fresh.NextIndex())
}

func TestOutputDir(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, manager.OutputDir())
}
