package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DataDir is the root directory holding one log file per sensor.
type DataDir string

// NewDataDir cleans path and rejects empty paths or paths with characters
// that are not portable across filesystems.
func NewDataDir(path string) (DataDir, error) {
	if len(path) == 0 {
		return "", errors.New("data directory cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if strings.ContainsAny(cleanPath, "<>:\"|?*") {
		return "", fmt.Errorf("data directory contains invalid characters: %s", cleanPath)
	}

	return DataDir(cleanPath), nil
}
