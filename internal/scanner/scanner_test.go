package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_FindsEMLFilesRecursively(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested", "deeper"), 0755))

	for _, name := range []string{
		"b.eml",
		"a.EML",
		filepath.Join("nested", "c.eml"),
		filepath.Join("nested", "deeper", "d.eml"),
		"ignore.txt",
		"ignore.mbox",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0644))
	}

	s := NewScanner(root)
	files, err := s.Scan()
	require.NoError(t, err)

	require.Len(t, files, 4, "Should find .eml files case-insensitively, recursively")
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), "Paths should be absolute")
	}
}

func TestScan_EmptyDir(t *testing.T) {
	s := NewScanner(t.TempDir())

	files, err := s.Scan()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_MissingDir(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "nope"))

	_, err := s.Scan()
	assert.Error(t, err)
}
