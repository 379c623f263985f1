package history

import (
	"errors"
	"fmt"
	"os"
)

// tempScope owns the temporary files created while processing one commit.
type tempScope struct {
	dir   string
	paths []string
}

// reserve creates an empty file with a random suffix on pattern and records
// it for release. The file is created 0600.
func (s *tempScope) reserve(pattern string) (string, error) {
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	s.paths = append(s.paths, f.Name())
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}

// write reserves a file and fills it with data.
func (s *tempScope) write(pattern string, data []byte) (string, error) {
	name, err := s.reserve(pattern)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(name, data, 0600); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// release removes every file the scope created.
func (s *tempScope) release() error {
	var errs []error
	for _, p := range s.paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	s.paths = nil
	return errors.Join(errs...)
}
