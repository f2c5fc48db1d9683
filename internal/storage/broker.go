package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Entry is a broker index record for one public file.
type Entry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	MIMEType string `json:"mimeType"`
}

// Broker is the index-based public storage interface. Insert returns a nil
// entry (with nil error) when the name already maps to an existing entry;
// that is the broker's conflict signal, mapped to ErrNameTaken by the
// strategy.
type Broker interface {
	Insert(name, mimeType string) (*Entry, error)
	Remove(id string) error
}

// IndexBroker is an in-process Broker backed by a JSON name index stored
// alongside the downloads directory. The index is loaded once and persisted
// after every mutation.
type IndexBroker struct {
	dir       string
	indexPath string

	mu      sync.Mutex
	byName  map[string]Entry
	byID    map[string]string // id -> name
}

// NewIndexBroker opens (or initializes) the broker index under dir.
func NewIndexBroker(dir string) (*IndexBroker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads dir %s: %w", dir, err)
	}

	b := &IndexBroker{
		dir:       dir,
		indexPath: filepath.Join(dir, indexFileName),
		byName:    make(map[string]Entry),
		byID:      make(map[string]string),
	}

	data, err := os.ReadFile(b.indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return b, nil
		}
		return nil, fmt.Errorf("read broker index: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse broker index: %w", err)
	}
	for _, e := range entries {
		b.byName[e.Name] = e
		b.byID[e.ID] = e.Name
	}
	return b, nil
}

// Insert implements Broker.
func (b *IndexBroker) Insert(name, mimeType string) (*Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byName[name]; exists {
		return nil, nil // conflict: name already mapped
	}

	entry := Entry{
		ID:       uuid.NewString(),
		Name:     name,
		Path:     filepath.Join(b.dir, name),
		MIMEType: mimeType,
	}
	b.byName[name] = entry
	b.byID[entry.ID] = name

	if err := b.persistLocked(); err != nil {
		delete(b.byName, name)
		delete(b.byID, entry.ID)
		return nil, err
	}
	return &entry, nil
}

// Remove implements Broker.
func (b *IndexBroker) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	name, ok := b.byID[id]
	if !ok {
		return nil
	}
	delete(b.byID, id)
	delete(b.byName, name)
	return b.persistLocked()
}

func (b *IndexBroker) persistLocked() error {
	entries := make([]Entry, 0, len(b.byName))
	for _, e := range b.byName {
		entries = append(entries, e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode broker index: %w", err)
	}
	if err := os.WriteFile(b.indexPath, data, 0o644); err != nil {
		return fmt.Errorf("write broker index: %w", err)
	}
	return nil
}

// BrokerStrategy reserves destination slots through a Broker. Listing
// visibility of the new entry is the broker's concern; no extra scan step
// happens here.
type BrokerStrategy struct {
	broker Broker
	dir    string
}

// NewBrokerStrategy creates a broker-backed strategy writing into dir.
func NewBrokerStrategy(broker Broker, dir string) (*BrokerStrategy, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads dir %s: %w", dir, err)
	}
	return &BrokerStrategy{broker: broker, dir: dir}, nil
}

// Reserve implements Strategy.
func (s *BrokerStrategy) Reserve(name, mimeType string) (*Reservation, error) {
	entry, err := s.broker.Insert(name, mimeType)
	if err != nil {
		return nil, fmt.Errorf("broker insert %s: %w", name, err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}

	f, err := os.OpenFile(entry.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		_ = s.broker.Remove(entry.ID)
		return nil, fmt.Errorf("open reserved slot %s: %w", entry.Path, err)
	}

	entryID := entry.ID
	return &Reservation{
		Name:    entry.Name,
		Path:    entry.Path,
		file:    f,
		release: func() { _ = s.broker.Remove(entryID) },
	}, nil
}

// Dir implements Strategy.
func (s *BrokerStrategy) Dir() string {
	return s.dir
}

// Kind implements Strategy.
func (s *BrokerStrategy) Kind() string {
	return "broker"
}
