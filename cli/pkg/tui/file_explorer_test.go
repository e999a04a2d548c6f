package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
}

func entryNames(entries []fileExplorerEntry) []string {
	var names []string
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names
}

func TestLoadDirOrdersDirsFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "photos"), 0o755))
	writeFile(t, filepath.Join(dir, "notes.txt"), 4)
	writeFile(t, filepath.Join(dir, "cat.PNG"), 4)
	writeFile(t, filepath.Join(dir, ".hidden"), 4)

	entries, err := loadDir(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"..", "photos", "cat.PNG", "notes.txt"}, entryNames(entries))

	images, err := loadDir(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"..", "photos", "cat.PNG"}, entryNames(images))
}

func TestLoadDirMissing(t *testing.T) {
	_, err := loadDir(filepath.Join(t.TempDir(), "gone"), false)
	assert.Error(t, err)
}

func TestFileExplorerRejectsLargeFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big.bin"), 2048)
	writeFile(t, filepath.Join(dir, "small.txt"), 16)

	var m model
	m.state.explorer = fileExplorerState{purpose: attachPurpose, limit: 1024}.chdir(dir)
	m.state.notify = notifyState{open: true, confirmAction: FileExplorerAction}
	require.Equal(t, []string{"..", "big.bin", "small.txt"}, entryNames(m.state.explorer.entries))

	m, _ = m.fileExplorerUpdate(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.fileExplorerUpdate(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.state.explorer.err, "big.bin is larger than 1.0 KiB")
	assert.True(t, m.state.notify.open)

	m, _ = m.fileExplorerUpdate(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = m.fileExplorerUpdate(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, m.state.notify.open)
	assert.Equal(t, fileSelectedMsg{path: filepath.Join(dir, "small.txt"), purpose: attachPurpose}, cmd())
}

func TestFileExplorerReturnsToParent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "b"), 0o755))

	var m model
	m.state.explorer = fileExplorerState{}.chdir(filepath.Join(dir, "b"))

	m, _ = m.fileExplorerUpdate(tea.KeyMsg{Type: tea.KeyLeft})

	assert.Equal(t, dir, m.state.explorer.currentDir)
	assert.Equal(t, "b", m.state.explorer.entries[m.state.explorer.cursor].name)
}

func TestFileExplorerKeepsListingOnError(t *testing.T) {
	dir := t.TempDir()
	fe := fileExplorerState{}.chdir(dir)

	fe = fe.chdir(filepath.Join(dir, "gone"))

	assert.Equal(t, dir, fe.currentDir)
	assert.Contains(t, fe.err, "Cannot read")
}
