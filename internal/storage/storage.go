// Package storage reserves uniquely-named destination slots in the public
// downloads area. Two strategies exist for the two storage-access shapes the
// platform may offer: an index-based broker and direct path access. The
// strategy is selected once at startup by Detect so the export path never
// branches on platform capabilities.
package storage

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNameTaken is returned by Reserve when the requested display name already
// maps to an existing entry. The caller retries with a renamed candidate.
var ErrNameTaken = errors.New("destination name already taken")

// Reservation is an exclusively-held destination slot, open for writing.
// Close it after a successful copy; Discard it to release the slot and drop
// any partially written bytes.
type Reservation struct {
	Name string // final display name (post collision resolution)
	Path string // absolute destination path

	file    *os.File
	release func()
}

func (r *Reservation) Write(p []byte) (int, error) {
	return r.file.Write(p)
}

// Close finalizes the reservation, keeping the written file.
func (r *Reservation) Close() error {
	return r.file.Close()
}

// Discard releases the reservation: the destination file and any broker index
// entry are removed. Used when reservation succeeded but the copy never ran.
func (r *Reservation) Discard() error {
	_ = r.file.Close()
	if r.release != nil {
		r.release()
	}
	return os.Remove(r.Path)
}

// Strategy reserves destination slots in the downloads area.
type Strategy interface {
	// Reserve claims the given display name. Returns ErrNameTaken when the
	// name already maps to an existing entry.
	Reserve(name, mimeType string) (*Reservation, error)

	// Dir returns the downloads directory this strategy writes into.
	Dir() string

	// Kind identifies the strategy for logging ("broker" or "path").
	Kind() string
}

// indexFileName marks a downloads area managed by the index broker.
const indexFileName = ".filedrop-index.json"

// Detect probes the downloads area once at startup and returns the matching
// strategy: broker-based when a broker index is present, path-based otherwise.
func Detect(downloadsDir string) (Strategy, error) {
	if _, err := os.Stat(filepath.Join(downloadsDir, indexFileName)); err == nil {
		broker, err := NewIndexBroker(downloadsDir)
		if err != nil {
			return nil, err
		}
		return NewBrokerStrategy(broker, downloadsDir)
	}
	return NewPathStrategy(downloadsDir)
}
