package hwcodec

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/gogpu/gpucontext"
)

// Names of the bundled vendor backends.
const (
	BackendNV  = "nv"
	BackendAMF = "amf"
	BackendVPL = "vpl"
)

// Backend is one vendor SDK adapter. It declares which capability entries
// it can serve and hands out the dispatch tables that serve them.
type Backend interface {
	Name() string

	// EncodeCapabilities lists the encode entries eligible on this machine.
	EncodeCapabilities() []CapabilityEntry

	// DecodeCapabilities lists the decode entries eligible on this machine.
	DecodeCapabilities() []CapabilityEntry

	// EncodeDriver returns the encode dispatch table, or nil if the SDK
	// cannot encode.
	EncodeDriver() EncodeDriver

	// DecodeDriver returns the decode dispatch table, or nil if the SDK
	// cannot decode.
	DecodeDriver() DecodeDriver
}

// BackendCapability is a capability entry attributed to a backend.
type BackendCapability struct {
	Backend string          `json:"backend" yaml:"backend"`
	Entry   CapabilityEntry `json:"entry" yaml:"entry"`
}

// backendPriority orders selection when several backends offer the same
// entry. Backends outside the list follow in name order.
var backendPriority = []string{BackendNV, BackendAMF, BackendVPL}

var backends = gpucontext.NewRegistry[Backend](gpucontext.WithPriority(backendPriority...))

// RegisterBackend registers a backend factory under name. Vendor packages
// call it from init. The factory should return the same instance on every
// call. Registering an existing name replaces it.
func RegisterBackend(name string, factory func() Backend) {
	backends.Register(name, factory)
	if b := factory(); b != nil {
		propagateLogger(b, Logger())
	}
}

// UnregisterBackend removes a backend from the registry.
func UnregisterBackend(name string) {
	backends.Unregister(name)
}

// BackendNames returns the registered backend names in selection order.
func BackendNames() []string {
	names := backends.Available()
	rank := func(n string) int {
		if i := slices.Index(backendPriority, n); i >= 0 {
			return i
		}
		return len(backendPriority)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

// BackendSelected reports whether the backend called name passes the
// filter in names. Names match case-insensitively and an empty filter
// selects every backend.
func BackendSelected(names []string, name string) bool {
	if len(names) == 0 {
		return true
	}
	return slices.ContainsFunc(names, func(n string) bool {
		return strings.EqualFold(strings.TrimSpace(n), name)
	})
}

// LookupBackend returns the backend registered under name.
func LookupBackend(name string) (Backend, error) {
	if !backends.Has(name) {
		return nil, &BackendNotFoundError{Name: name, Available: BackendNames()}
	}
	b := backends.Get(name)
	if b == nil {
		return nil, &BackendNotFoundError{Name: name, Available: BackendNames()}
	}
	return b, nil
}

func registeredBackends() []Backend {
	names := BackendNames()
	out := make([]Backend, 0, len(names))
	for _, n := range names {
		if b := backends.Get(n); b != nil {
			out = append(out, b)
		}
	}
	return out
}

// EncodeCapabilities lists the encode entries of every registered backend
// in selection order.
func EncodeCapabilities() []BackendCapability {
	var out []BackendCapability
	for _, b := range registeredBackends() {
		for _, e := range b.EncodeCapabilities() {
			out = append(out, BackendCapability{Backend: b.Name(), Entry: e})
		}
	}
	return out
}

// DecodeCapabilities lists the decode entries of every registered backend
// in selection order.
func DecodeCapabilities() []BackendCapability {
	var out []BackendCapability
	for _, b := range registeredBackends() {
		for _, e := range b.DecodeCapabilities() {
			out = append(out, BackendCapability{Backend: b.Name(), Entry: e})
		}
	}
	return out
}

// SelectEncoder returns the highest-priority backend whose encode catalog
// contains e.
func SelectEncoder(e CapabilityEntry) (Backend, error) {
	for _, b := range registeredBackends() {
		if b.EncodeDriver() != nil && Contains(b.EncodeCapabilities(), e) {
			Logger().Info("hwcodec: encoder backend selected", "backend", b.Name(), "entry", e.String())
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: no encode backend for %s", ErrUnsupported, e)
}

// SelectDecoder returns the highest-priority backend whose decode catalog
// contains e.
func SelectDecoder(e CapabilityEntry) (Backend, error) {
	for _, b := range registeredBackends() {
		if b.DecodeDriver() != nil && Contains(b.DecodeCapabilities(), e) {
			Logger().Info("hwcodec: decoder backend selected", "backend", b.Name(), "entry", e.String())
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: no decode backend for %s", ErrUnsupported, e)
}

// BackendNotFoundError is returned when a requested backend is not
// registered.
type BackendNotFoundError struct {
	Name      string
	Available []string
}

func (e *BackendNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("hwcodec: backend %q not found (no backends registered)", e.Name)
	}
	return fmt.Sprintf("hwcodec: backend %q not found (available: %v)", e.Name, e.Available)
}

// Is reports ErrUnsupported as a match.
func (e *BackendNotFoundError) Is(target error) bool { return target == ErrUnsupported }
