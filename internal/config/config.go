package config

import (
	"os"
	"path/filepath"
)

// Config holds application configuration
type Config struct {
	// DataDir is the base directory for all persisted output
	DataDir string

	// IncludeHTML controls whether HTML bodies are kept in record content
	IncludeHTML bool
}

// Default returns default configuration
func Default() *Config {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		DataDir:     filepath.Join(homeDir, ".inboxforge"),
		IncludeHTML: false,
	}
}

// ProcessedDir returns the directory holding one JSON record per email.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed")
}

// IndexDir returns the search index directory.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, "search_index")
}

// IDLogPath returns the path of the append-only fingerprint log.
func (c *Config) IDLogPath() string {
	return filepath.Join(c.ProcessedDir(), "email_ids.txt")
}
