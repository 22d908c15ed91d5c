// Package manifest records what a conversion run did to each source file.
// The manifest lives next to the outputs and is encoded with msgpack so
// that later runs and the status command can read it back.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultFile is the manifest file name inside an output directory.
const DefaultFile = ".jdc-manifest"

const version = 1

// Outcome is what one stage did for one file.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeRenamed   Outcome = "renamed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeWritten   Outcome = "written"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Entry is the record for one source file, keyed by its path relative to
// the input directory.
type Entry struct {
	Path      string    `msgpack:"path"`
	Digest    string    `msgpack:"digest"`
	Obfuscate Outcome   `msgpack:"obfuscate"`
	Pair      Outcome   `msgpack:"pair"`
	Methods   int       `msgpack:"methods"`
	Locals    int       `msgpack:"locals"`
	Reason    string    `msgpack:"reason,omitempty"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

type manifestData struct {
	Version   int       `msgpack:"version"`
	Backend   string    `msgpack:"backend"`
	UpdatedAt time.Time `msgpack:"updated_at"`
	Entries   []Entry   `msgpack:"entries"`
}

// Manifest is a concurrency-safe set of entries.
type Manifest struct {
	mu        sync.RWMutex
	backend   string
	updatedAt time.Time
	entries   map[string]Entry
}

// New returns an empty manifest for a run using backend.
func New(backend string) *Manifest {
	return &Manifest{
		backend: backend,
		entries: make(map[string]Entry),
	}
}

// Backend returns the syntax backend recorded for the run.
func (m *Manifest) Backend() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backend
}

// SetBackend records the syntax backend used by the current run.
func (m *Manifest) SetBackend(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backend = name
}

// UpdatedAt returns when the manifest was last saved.
func (m *Manifest) UpdatedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updatedAt
}

// Put stores e, stamping UpdatedAt when it is zero.
func (m *Manifest) Put(e Entry) {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Path] = e
}

// Get returns the entry for path.
func (m *Manifest) Get(path string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[path]
	return e, ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries returns all entries sorted by path.
func (m *Manifest) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Save encodes the manifest to w.
func (m *Manifest) Save(w io.Writer) error {
	data := manifestData{
		Version:   version,
		Backend:   m.Backend(),
		UpdatedAt: time.Now(),
		Entries:   m.Entries(),
	}
	if err := msgpack.NewEncoder(w).Encode(&data); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	m.mu.Lock()
	m.updatedAt = data.UpdatedAt
	m.mu.Unlock()
	return nil
}

// Load replaces the manifest contents with the data read from r.
func (m *Manifest) Load(r io.Reader) error {
	var data manifestData
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode manifest: %w", err)
	}
	if data.Version != version {
		return fmt.Errorf("unsupported manifest version %d", data.Version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.backend = data.Backend
	m.updatedAt = data.UpdatedAt
	m.entries = make(map[string]Entry, len(data.Entries))
	for _, e := range data.Entries {
		m.entries[e.Path] = e
	}
	return nil
}

// SaveFile writes the manifest to path through a temporary file so a
// crash never leaves a truncated manifest behind.
func (m *Manifest) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}

// LoadFile reads a manifest from path. A missing file yields an empty
// manifest.
func LoadFile(path string) (*Manifest, error) {
	m := New("")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	if err := m.Load(f); err != nil {
		return nil, err
	}
	return m, nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Summary aggregates entry outcomes.
type Summary struct {
	Files      int
	Renamed    int
	Unchanged  int
	Skipped    int
	Failed     int
	Paired     int
	PairFailed int
	Methods    int
	Locals     int
}

// Summarize counts outcomes over all entries.
func (m *Manifest) Summarize() Summary {
	var s Summary
	for _, e := range m.Entries() {
		s.Files++
		s.Methods += e.Methods
		s.Locals += e.Locals
		switch e.Obfuscate {
		case OutcomeRenamed:
			s.Renamed++
		case OutcomeUnchanged:
			s.Unchanged++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
		switch e.Pair {
		case OutcomeWritten:
			s.Paired++
		case OutcomeFailed:
			s.PairFailed++
		}
	}
	return s
}

// Failures returns entries where either stage failed.
func (m *Manifest) Failures() []Entry {
	var out []Entry
	for _, e := range m.Entries() {
		if e.Obfuscate == OutcomeFailed || e.Pair == OutcomeFailed {
			out = append(out, e)
		}
	}
	return out
}
