// Package catalog resolves file identifiers to their metadata descriptors.
// The catalog is the local metadata store for remotely-stored files: it knows
// each file's display name, MIME type, declared size and whether the bytes are
// already cached on disk.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrNotFound indicates the identifier has no descriptor in the catalog.
var ErrNotFound = errors.New("file not found in catalog")

// Descriptor describes one remotely-stored file.
type Descriptor struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MIMEType        string `json:"mimeType"`
	LocalPath       string `json:"localPath,omitempty"`
	IsLocallyCached bool   `json:"isLocallyCached"`
	Size            int64  `json:"size"`
	RemoteURL       string `json:"remoteUrl,omitempty"`
}

// Resolver resolves a file identifier to its descriptor.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*Descriptor, error)
}

// FileCatalog is a JSON-file-backed Resolver. The whole catalog is loaded
// once; lookups are in-memory map reads.
type FileCatalog struct {
	path    string
	mu      sync.RWMutex
	entries map[string]Descriptor
}

// Load reads the catalog at path. A missing file yields an empty catalog so
// first runs work without setup.
func Load(path string) (*FileCatalog, error) {
	c := &FileCatalog{
		path:    path,
		entries: make(map[string]Descriptor),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var list []Descriptor
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for _, d := range list {
		c.entries[d.ID] = d
	}
	return c, nil
}

// Resolve implements Resolver.
func (c *FileCatalog) Resolve(ctx context.Context, id string) (*Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &d, nil
}

// Add inserts or replaces the descriptor for its ID.
func (c *FileCatalog) Add(d Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[d.ID] = d
}

// List returns all descriptors ordered by ID.
func (c *FileCatalog) List() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]Descriptor, 0, len(c.entries))
	for _, d := range c.entries {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Save writes the catalog back to its file.
func (c *FileCatalog) Save() error {
	list := c.List()

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", c.path, err)
	}
	return nil
}
