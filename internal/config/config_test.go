package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotEmpty(t, cfg.DataDir)
	assert.False(t, cfg.IncludeHTML)
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/forge"}

	assert.Equal(t, filepath.Join("/tmp/forge", "processed"), cfg.ProcessedDir())
	assert.Equal(t, filepath.Join("/tmp/forge", "search_index"), cfg.IndexDir())
	assert.Equal(t, filepath.Join("/tmp/forge", "processed", "email_ids.txt"), cfg.IDLogPath())
}
