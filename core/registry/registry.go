package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/easycab-sim/central/core/model"
)

// ErrNoFreeTaxi is returned by AssignFirstFree when every taxi is busy.
var ErrNoFreeTaxi = errors.New("no free taxi available")

// Snapshot is an immutable point-in-time copy of the registry, safe to
// read without holding the registry lock.
type Snapshot struct {
	Taxis     map[int]model.Taxi
	Locations map[string]model.Location
}

// Registry is the single source of truth for fleet and location state.
// Every accessor takes the one internal mutex, so callers never observe
// a half-written taxi or location, and select-and-transition operations
// are atomic end to end.
type Registry struct {
	mu        sync.Mutex
	taxis     map[int]model.Taxi
	locations map[string]model.Location
	dirty     bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		taxis:     make(map[int]model.Taxi),
		locations: make(map[string]model.Location),
	}
}

// NewFrom seeds a registry with loaded taxis and locations.
func NewFrom(taxis map[int]model.Taxi, locations map[string]model.Location) *Registry {
	r := New()
	for id, t := range taxis {
		r.taxis[id] = t
	}
	for id, l := range locations {
		r.locations[id] = l
	}
	return r
}

// GetTaxi returns the taxi with the given id.
func (r *Registry) GetTaxi(id int) (model.Taxi, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.taxis[id]
	return t, ok
}

// UpsertTaxi stores the taxi and flags the registry dirty.
func (r *Registry) UpsertTaxi(t model.Taxi) {
	r.mu.Lock()
	r.taxis[t.ID] = t
	r.dirty = true
	r.mu.Unlock()
}

// MutateTaxi applies fn to the taxi under the registry lock and flags
// the registry dirty. It returns false when the id is unknown.
func (r *Registry) MutateTaxi(id int, fn func(*model.Taxi)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.taxis[id]
	if !ok {
		return false
	}
	fn(&t)
	t.ID = id
	r.taxis[id] = t
	r.dirty = true
	return true
}

// ListFreeTaxis returns every FREE taxi in ascending id order so that
// tie-breaks are deterministic.
func (r *Registry) ListFreeTaxis() []model.Taxi {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freeTaxisLocked()
}

func (r *Registry) freeTaxisLocked() []model.Taxi {
	free := make([]model.Taxi, 0, len(r.taxis))
	for _, t := range r.taxis {
		if t.Status == model.StatusFree {
			free = append(free, t)
		}
	}
	sort.Slice(free, func(i, j int) bool { return free[i].ID < free[j].ID })
	return free
}

// AssignFirstFree picks the lowest-id FREE taxi and transitions it to
// BUSY/GREEN bound to the customer, all under one lock acquisition. Two
// concurrent assignments can therefore never pick the same taxi, and a
// customer that already holds an assignment gets that taxi back
// unchanged, so a redelivered request never binds a second one.
func (r *Registry) AssignFirstFree(customerID string) (model.Taxi, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.taxis {
		if t.Status == model.StatusBusy && t.CustomerID == customerID {
			return t, nil
		}
	}
	free := r.freeTaxisLocked()
	if len(free) == 0 {
		return model.Taxi{}, ErrNoFreeTaxi
	}
	t := free[0]
	t.Status = model.StatusBusy
	t.Color = model.ColorGreen
	t.CustomerID = customerID
	r.taxis[t.ID] = t
	r.dirty = true
	return t, nil
}

// GetLocation returns the location with the given id.
func (r *Registry) GetLocation(id string) (model.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locations[id]
	return l, ok
}

// UpsertLocation stores the location and flags the registry dirty.
func (r *Registry) UpsertLocation(l model.Location) {
	r.mu.Lock()
	r.locations[l.ID] = l
	r.dirty = true
	r.mu.Unlock()
}

// RemoveLocation drops a location, typically a customer pickup point
// after trip completion. Removing an unknown id is a no-op.
func (r *Registry) RemoveLocation(id string) {
	r.mu.Lock()
	if _, ok := r.locations[id]; ok {
		delete(r.locations, id)
		r.dirty = true
	}
	r.mu.Unlock()
}

// Snapshot copies the full state for rendering or persistence. Taxis and
// locations are value types, so the copied maps share nothing with the
// registry.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{
		Taxis:     make(map[int]model.Taxi, len(r.taxis)),
		Locations: make(map[string]model.Location, len(r.locations)),
	}
	for id, t := range r.taxis {
		snap.Taxis[id] = t
	}
	for id, l := range r.locations {
		snap.Locations[id] = l
	}
	return snap
}

// MarkDirty flags unbroadcast changes.
func (r *Registry) MarkDirty() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// TakeDirty atomically reads and clears the dirty flag.
func (r *Registry) TakeDirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dirty
	r.dirty = false
	return d
}
