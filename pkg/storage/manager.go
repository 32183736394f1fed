package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
)

// imageFilePattern matches the sequential file naming scheme gsv_<index>.jpg
var imageFilePattern = regexp.MustCompile(`^gsv_(\d+)\.jpg$`)

// Manager handles the download directory and sequential file naming
type Manager struct {
	outputDir string
	nextIndex int
	mu        sync.Mutex
}

// NewManager creates a storage manager for the given directory. The
// directory is created if absent and scanned for existing image files to
// determine the next free index.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles determines the next index from files already on disk.
// The next index is max existing index + 1, so gaps are never reused.
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	next := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := imageFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if index+1 > next {
			next = index + 1
		}
	}

	m.nextIndex = next
	return nil
}

// NextIndex returns the index the next reservation will hand out
func (m *Manager) NextIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextIndex
}

// ReserveIndex atomically claims the next sequential file index. Serializing
// the claim here is what keeps concurrent downloads from colliding on a name.
func (m *Manager) ReserveIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.nextIndex
	m.nextIndex++
	return index
}

// ImageFileName returns the file name for a given index
func ImageFileName(index int) string {
	return fmt.Sprintf("gsv_%d.jpg", index)
}

// SaveImage writes image data to the file for the given index and returns
// the file name. The write goes through a temp file and rename so a failed
// download never leaves a partial image behind.
func (m *Manager) SaveImage(r io.Reader, index int) (string, error) {
	name := ImageFileName(index)
	filename := filepath.Join(m.outputDir, name)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save image data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return name, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}
