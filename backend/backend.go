package backend

import (
	"errors"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/backend/amf"
	"github.com/gogpu/hwcodec/backend/nv"
	"github.com/gogpu/hwcodec/backend/vpl"
)

// ErrBackendNotAvailable is returned when no bundled backend offers a
// capability on this machine.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Vendors returns the names of the bundled vendor backends in selection
// order.
func Vendors() []string {
	return []string{nv.Name, amf.Name, vpl.Name}
}

// Default returns the first bundled backend, in selection order, whose
// encode or decode catalog is not empty.
func Default() (hwcodec.Backend, error) {
	for _, name := range Vendors() {
		b, err := hwcodec.LookupBackend(name)
		if err != nil {
			continue
		}
		if len(b.EncodeCapabilities()) > 0 || len(b.DecodeCapabilities()) > 0 {
			return b, nil
		}
	}
	return nil, ErrBackendNotAvailable
}

// MustDefault is like Default but panics when no backend is available.
func MustDefault() hwcodec.Backend {
	b, err := Default()
	if err != nil {
		panic(err)
	}
	return b
}
