// Package registry tracks the transmission backends attached to one
// logical LED channel.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/coreman2200/clockless/internal/backend"
)

// DriverInfo is the query-surface view of one registered backend.
type DriverInfo struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Enabled  bool   `json:"enabled"`
}

// ErrDuplicate reports a second registration under an existing name.
var ErrDuplicate = errors.New("registry: driver name already registered")

type entry struct {
	b       backend.Backend
	enabled bool
	order   int
}

// Registry is the one piece of shared mutable state in the core. One
// instance belongs to one logical channel; it is created at strip
// attachment and passed by reference, never accessed as a package
// global. Exclusive mode is advisory: the registry does not arbitrate
// concurrent claimants, that is caller discipline.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextOrd int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: map[string]*entry{}}
}

// Register adds a backend under its own name, enabled. Names are
// unique per channel.
func (r *Registry) Register(b backend.Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := b.Name()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.entries[name] = &entry{b: b, enabled: true, order: r.nextOrd}
	r.nextOrd++
	return nil
}

// List reports every registered backend, descending priority, ties in
// registration order.
func (r *Registry) List() []DriverInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	type row struct {
		info  DriverInfo
		order int
	}
	rows := make([]row, 0, len(r.entries))
	for name, e := range r.entries {
		rows = append(rows, row{
			info:  DriverInfo{Name: name, Priority: e.b.Priority(), Enabled: e.enabled},
			order: e.order,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].info.Priority != rows[j].info.Priority {
			return rows[i].info.Priority > rows[j].info.Priority
		}
		return rows[i].order < rows[j].order
	})
	out := make([]DriverInfo, len(rows))
	for i, rw := range rows {
		out[i] = rw.info
	}
	return out
}

// Get returns an enabled backend by name.
func (r *Registry) Get(name string) (backend.Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok || !e.enabled {
		return nil, false
	}
	return e.b, true
}

// SetExclusive disables every backend except name, so a validation run
// can attribute all transmitted bits to exactly one driver. Returns
// false and changes nothing when name is unknown.
func (r *Registry) SetExclusive(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return false
	}
	for n, e := range r.entries {
		e.enabled = n == name
	}
	return true
}

// Enable marks a backend usable again.
func (r *Registry) Enable(name string) bool {
	return r.setEnabled(name, true)
}

// Disable takes a backend out of rotation without unregistering it.
func (r *Registry) Disable(name string) bool {
	return r.setEnabled(name, false)
}

func (r *Registry) setEnabled(name string, v bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return false
	}
	e.enabled = v
	return true
}
