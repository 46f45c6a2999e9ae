// Package tables hosts many games in one process. Every trigger on a
// game runs under that game's lock, so two goroutines never interleave
// mutations of the same state.
package tables

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/rng"
	"terrania.game/internal/sim/tuning"
)

var ErrNotFound = errors.New("table not found")

const stateVersion = 1

// Table is one hosted game.
type Table struct {
	mu      sync.Mutex
	g       *game.Game
	created time.Time
	// lastSave is the most recent save path, if any.
	lastSave string
}

// Info is a read-only summary for listings.
type Info struct {
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	LastSave string    `json:"last_save,omitempty"`
}

type persistedState struct {
	Version int    `json:"version"`
	Tables  []Info `json:"tables"`
}

type Manager struct {
	mu     sync.RWMutex
	tables map[string]*Table

	cats      *catalogs.Catalogs
	tune      tuning.Tuning
	stateFile string
	persistMu sync.Mutex

	// newHooks builds the notification port for a new table.
	newHooks func(id string) game.Hooks
}

// NewManager creates an empty manager. stateFile, when set, receives a
// JSON manifest of hosted tables and their last saves.
func NewManager(cats *catalogs.Catalogs, tune tuning.Tuning, stateFile string, newHooks func(id string) game.Hooks) (*Manager, error) {
	if cats == nil {
		return nil, fmt.Errorf("tables: nil catalogs")
	}
	if err := tune.Validate(); err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	return &Manager{
		tables:    map[string]*Table{},
		cats:      cats,
		tune:      tune,
		stateFile: stateFile,
		newHooks:  newHooks,
	}, nil
}

func (m *Manager) hooks(id string) game.Hooks {
	if m.newHooks == nil {
		return nil
	}
	return m.newHooks(id)
}

// Create hosts a new game with a fresh uuid. seed 0 draws a random seed.
func (m *Manager) Create(seed int64) (string, error) {
	if seed == 0 {
		s, err := rng.NewSeed()
		if err != nil {
			return "", err
		}
		seed = s
	}
	id := uuid.NewString()
	g, err := game.New(game.Config{ID: id, Seed: seed, Tuning: m.tune}, m.cats, m.hooks(id))
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.tables[id] = &Table{g: g, created: time.Now().UTC()}
	m.mu.Unlock()
	return id, m.persist()
}

// Adopt hosts an already constructed game under its own id.
func (m *Manager) Adopt(g *game.Game, savePath string) error {
	if g.ID() == "" {
		return fmt.Errorf("adopt: game has no id")
	}
	if _, err := uuid.Parse(g.ID()); err != nil {
		return fmt.Errorf("adopt %q: %w", g.ID(), err)
	}
	m.mu.Lock()
	if _, dup := m.tables[g.ID()]; dup {
		m.mu.Unlock()
		return fmt.Errorf("adopt %s: already hosted", g.ID())
	}
	m.tables[g.ID()] = &Table{g: g, created: time.Now().UTC(), lastSave: savePath}
	m.mu.Unlock()
	return m.persist()
}

func (m *Manager) table(id string) (*Table, error) {
	m.mu.RLock()
	t, ok := m.tables[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Do runs fn with exclusive access to the game.
func (m *Manager) Do(id string, fn func(g *game.Game) error) error {
	t, err := m.table(id)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.g)
}

// Save writes the game's snapshot under dir and records it.
func (m *Manager) Save(id, dir string) (string, error) {
	t, err := m.table(id)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	path := filepath.Join(dir, fmt.Sprintf("%s-t%04d.snap.zst", id, t.g.State().Turn))
	_, err = t.g.Save(path)
	if err == nil {
		t.lastSave = path
	}
	t.mu.Unlock()
	if err != nil {
		return "", err
	}
	return path, m.persist()
}

func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	if _, ok := m.tables[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.tables, id)
	m.mu.Unlock()
	return m.persist()
}

// List returns the hosted tables ordered by creation time.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.tables))
	for id, t := range m.tables {
		t.mu.Lock()
		out = append(out, Info{ID: id, Created: t.created, LastSave: t.lastSave})
		t.mu.Unlock()
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Manager) persist() error {
	if m.stateFile == "" {
		return nil
	}
	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	b, err := json.MarshalIndent(persistedState{Version: stateVersion, Tables: m.List()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.stateFile), 0o755); err != nil {
		return err
	}
	tmp := m.stateFile + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.stateFile)
}

// LoadManifest reads a manifest written by a previous manager.
func LoadManifest(path string) ([]Info, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st persistedState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("tables manifest: %w", err)
	}
	if st.Version != stateVersion {
		return nil, fmt.Errorf("tables manifest: unsupported version %d", st.Version)
	}
	return st.Tables, nil
}
