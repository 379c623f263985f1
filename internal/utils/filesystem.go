package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindUp walks from start towards the filesystem root and returns the first
// directory containing an entry named marker. It returns "" without error
// when no such directory exists below the user's home directory's parent.
func FindUp(start, marker string) (string, error) {
	currentDir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	// A missing home directory only removes the early stop.
	homeDir, _ := os.UserHomeDir()
	stopAt := ""
	if homeDir != "" {
		stopAt = filepath.Dir(homeDir)
	}

	for {
		if currentDir == stopAt {
			return "", nil
		}

		_, err := os.Stat(filepath.Join(currentDir, marker))
		if err == nil {
			return currentDir, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("checking for %s in %s: %w", marker, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}
