package hwcodec

import (
	"slices"
)

// CapabilityEntry pairs a GraphicsAPI with a CodecFormat. An entry in a
// catalog means the combination is eligible to attempt, not that a session
// will construct successfully.
type CapabilityEntry struct {
	API    GraphicsAPI `json:"api" yaml:"api"`
	Format CodecFormat `json:"format" yaml:"format"`
}

func (e CapabilityEntry) String() string {
	return e.API.String() + "/" + e.Format.String()
}

// Probe checks whether a vendor driver is loadable. Any non-nil error means
// unsupported; causes are not distinguished.
type Probe func() error

// Catalog enumerates the capability entries of one backend direction.
// The API list is fixed at build time per platform; the format list is fixed
// per backend. A Catalog is immutable and safe for concurrent use.
type Catalog struct {
	name    string
	probe   Probe
	apis    []GraphicsAPI
	formats []CodecFormat
}

// NewCatalog returns a catalog that runs probe before every query and, on
// success, yields apis × formats. Duplicate values in either list are
// dropped so the result never repeats an entry. A nil probe always
// succeeds.
func NewCatalog(name string, probe Probe, apis []GraphicsAPI, formats []CodecFormat) *Catalog {
	return &Catalog{
		name:    name,
		probe:   probe,
		apis:    dedup(apis),
		formats: dedup(formats),
	}
}

// Capabilities probes the driver and lists every eligible entry in
// API-major order. A failed probe yields an empty, non-nil slice.
func (c *Catalog) Capabilities() []CapabilityEntry {
	if c.probe != nil {
		if err := c.probe(); err != nil {
			Logger().Debug("hwcodec: driver probe failed", "catalog", c.name, "err", err)
			return []CapabilityEntry{}
		}
	}

	out := make([]CapabilityEntry, 0, len(c.apis)*len(c.formats))
	for _, api := range c.apis {
		for _, f := range c.formats {
			out = append(out, CapabilityEntry{API: api, Format: f})
		}
	}
	Logger().Debug("hwcodec: driver probe ok", "catalog", c.name, "entries", len(out))
	return out
}

// APIs returns the platform API list of the catalog.
func (c *Catalog) APIs() []GraphicsAPI { return slices.Clone(c.apis) }

// Formats returns the codec list of the catalog.
func (c *Catalog) Formats() []CodecFormat { return slices.Clone(c.formats) }

// Contains reports whether entries holds e.
func Contains(entries []CapabilityEntry, e CapabilityEntry) bool {
	return slices.Contains(entries, e)
}

func dedup[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
