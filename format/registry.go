package format

import (
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/structix/errors"
)

// Registry holds the known formats. It is filled once during startup and
// read afterwards; the mutex only matters for tests that register in
// parallel.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	order       []string
	version     string // host version, checked against Metadata.Requires
}

// NewRegistry creates an empty registry for the given host version.
func NewRegistry(hostVersion string) *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
		version:     hostVersion,
	}
}

// Register adds a descriptor. The id is normalized; a second registration
// of the same id fails with ErrDuplicateFormat.
func (r *Registry) Register(d Descriptor) error {
	d.ID = NormalizeID(d.ID)
	if d.ID == "" {
		return errors.NewInvalidRequestError("format descriptor without id")
	}
	if d.Reader == nil {
		return errors.NewInvalidRequestError("format %s has no reader", d.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.ID]; exists {
		return errors.Wrapf(errors.ErrDuplicateFormat, "format %s already registered", d.ID)
	}
	if err := r.validateVersion(d); err != nil {
		return errors.Wrapf(err, "version incompatible for %s", d.ID)
	}

	r.descriptors[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

// MustRegister is Register for startup code; it panics on error.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for id, normalizing it first.
func (r *Registry) Lookup(id string) (Descriptor, error) {
	norm := NormalizeID(id)

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[norm]
	if !ok {
		return Descriptor{}, &UnknownFormatError{ID: id}
	}
	return d, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, err := r.Lookup(id)
	return err == nil
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Sorted returns the registered ids in lexical order.
func (r *Registry) Sorted() []string {
	ids := r.IDs()
	sort.Strings(ids)
	return ids
}

// Checkers returns the descriptors that carry a checker, in registration
// order. Content sniffing evaluates them in this order.
func (r *Registry) Checkers() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		if d := r.descriptors[id]; d.Checker != nil {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered formats.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Version returns the host version the registry checks constraints against.
func (r *Registry) Version() string { return r.version }

// validateVersion checks the descriptor's host constraint, if any.
func (r *Registry) validateVersion(d Descriptor) error {
	if d.Metadata.Requires == "" {
		return nil
	}

	hostVer, err := semver.NewVersion(r.version)
	if err != nil {
		return errors.Wrapf(err, "invalid host version %s", r.version)
	}

	constraint, err := semver.NewConstraint(d.Metadata.Requires)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", d.Metadata.Requires)
	}

	if !constraint.Check(hostVer) {
		return errors.Newf("format requires structix %s, but running %s", d.Metadata.Requires, r.version)
	}
	return nil
}
