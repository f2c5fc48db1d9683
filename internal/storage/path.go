package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// PathStrategy reserves destination slots by direct filesystem access.
// Exclusive creation (O_EXCL) makes the existence check and the claim a
// single atomic step, so two concurrent batches racing for the same name
// cannot both win it.
type PathStrategy struct {
	dir string
}

// NewPathStrategy creates a path-based strategy rooted at dir, creating the
// directory if needed.
func NewPathStrategy(dir string) (*PathStrategy, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads dir %s: %w", dir, err)
	}
	return &PathStrategy{dir: dir}, nil
}

// Reserve implements Strategy. mimeType is unused here; only the broker
// variant records content types.
func (s *PathStrategy) Reserve(name, mimeType string) (*Reservation, error) {
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
		}
		return nil, fmt.Errorf("reserve %s: %w", path, err)
	}

	return &Reservation{
		Name: name,
		Path: path,
		file: f,
	}, nil
}

// Dir implements Strategy.
func (s *PathStrategy) Dir() string {
	return s.dir
}

// Kind implements Strategy.
func (s *PathStrategy) Kind() string {
	return "path"
}
