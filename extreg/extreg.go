// Package extreg is a registry mapping (containing message, field number) to
// the FieldDescriptor of a registered extension, used by dynamicpb's parser
// to resolve extension fields that aren't part of a message's own
// descriptor. Grounded on the teacher's dynamic.ExtensionRegistry, trimmed
// to drop the global proto.ExtensionDesc / legacy-registered-type lookup
// path: this module has no code generator, so there is no generated-type
// registry to fall back to.
package extreg

import (
	"fmt"
	"sync"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/perr"
)

// Registry is a concurrency-safe extension lookup table, keyed by the
// full name of the extended message and the extension's field number.
type Registry struct {
	mu   sync.RWMutex
	exts map[string]map[int32]*fielddesc.FieldDescriptor
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{exts: map[string]map[int32]*fielddesc.FieldDescriptor{}}
}

// Add registers one or more extension FieldDescriptors. Every fd must
// report IsExtension(); the last registration for a given (owner, number)
// pair wins.
func (r *Registry) Add(fds ...*fielddesc.FieldDescriptor) error {
	for _, fd := range fds {
		if !fd.IsExtension() {
			return fmt.Errorf("%w: field %s is not an extension", perr.ErrIllegalArgument, fd.FullName())
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fd := range fds {
		owner := fd.ContainingType().FullName()
		m := r.exts[owner]
		if m == nil {
			m = map[int32]*fielddesc.FieldDescriptor{}
			r.exts[owner] = m
		}
		m[fd.Number()] = fd
	}
	return nil
}

// Find looks up the extension field registered for messageFullName at
// tagNumber. A nil Registry is treated as empty, so a zero-value
// *Registry (no registrations at all) can be used directly in call sites
// that haven't configured one. Returns nil if no such extension is
// registered.
func (r *Registry) Find(messageFullName string, tagNumber int32) *fielddesc.FieldDescriptor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exts[messageFullName][tagNumber]
}

// FindByName looks up the extension field registered for messageFullName
// whose own FullName matches fieldFullName.
func (r *Registry) FindByName(messageFullName, fieldFullName string) *fielddesc.FieldDescriptor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fd := range r.exts[messageFullName] {
		if fd.FullName() == fieldFullName {
			return fd
		}
	}
	return nil
}

// AllExtensionsForType returns every extension registered against
// messageFullName, in no particular order.
func (r *Registry) AllExtensionsForType(messageFullName string) []*fielddesc.FieldDescriptor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.exts[messageFullName]
	if len(m) == 0 {
		return nil
	}
	out := make([]*fielddesc.FieldDescriptor, 0, len(m))
	for _, fd := range m {
		out = append(out, fd)
	}
	return out
}
