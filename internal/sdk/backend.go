package sdk

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/internal/pci"
)

// Config describes one vendor backend.
type Config struct {
	Name   string
	Vendor pci.Vendor

	// EncodeAPIs and DecodeAPIs are the graphics APIs the SDK supports on
	// the running platform.
	EncodeAPIs []hwcodec.GraphicsAPI
	DecodeAPIs []hwcodec.GraphicsAPI
	Formats    []hwcodec.CodecFormat

	// EncodeSupport and DecodeSupport call the native driver support
	// check. Nil means the SDK is not linked.
	EncodeSupport func() int32
	DecodeSupport func() int32

	Encode *EncodeABI
	Decode *DecodeABI

	// Present overrides PCI detection. Nil means pci.Present.
	Present func(pci.Vendor) bool
}

// Backend is a hwcodec.Backend over one vendor library.
type Backend struct {
	cfg    Config
	encCat *hwcodec.Catalog
	decCat *hwcodec.Catalog
	enc    hwcodec.EncodeDriver
	dec    hwcodec.DecodeDriver
	logger atomic.Pointer[slog.Logger]
}

var _ hwcodec.Backend = (*Backend)(nil)

// NewBackend builds the catalogs and dispatch tables described by cfg.
func NewBackend(cfg Config) *Backend {
	if cfg.Formats == nil {
		cfg.Formats = hwcodec.DefaultFormats()
	}
	if cfg.Present == nil {
		cfg.Present = pci.Present
	}
	b := &Backend{cfg: cfg}
	b.logger.Store(hwcodec.Logger())
	b.encCat = hwcodec.NewCatalog(cfg.Name+"/encode", b.probe("encode", cfg.EncodeSupport), cfg.EncodeAPIs, cfg.Formats)
	b.decCat = hwcodec.NewCatalog(cfg.Name+"/decode", b.probe("decode", cfg.DecodeSupport), cfg.DecodeAPIs, cfg.Formats)
	if cfg.Encode != nil && cfg.EncodeSupport != nil {
		b.enc = NewEncodeDriver(cfg.Name, *cfg.Encode)
	}
	if cfg.Decode != nil && cfg.DecodeSupport != nil {
		b.dec = NewDecodeDriver(cfg.Name, *cfg.Decode)
	}
	return b
}

// probe checks for an adapter of the vendor before loading the driver.
func (b *Backend) probe(dir string, support func() int32) hwcodec.Probe {
	return func() error {
		if support == nil {
			return ErrNotBuilt
		}
		if !b.cfg.Present(b.cfg.Vendor) {
			return fmt.Errorf("%w: %v", ErrNoDevice, b.cfg.Vendor)
		}
		if rc := support(); rc != 0 {
			b.logger.Load().Debug("sdk: driver support check failed", "backend", b.cfg.Name, "direction", dir, "code", rc)
			return fmt.Errorf("sdk: %s %s driver support: code %d", b.cfg.Name, dir, rc)
		}
		return nil
	}
}

func (b *Backend) Name() string { return b.cfg.Name }

func (b *Backend) EncodeCapabilities() []hwcodec.CapabilityEntry { return b.encCat.Capabilities() }

func (b *Backend) DecodeCapabilities() []hwcodec.CapabilityEntry { return b.decCat.Capabilities() }

func (b *Backend) EncodeDriver() hwcodec.EncodeDriver { return b.enc }

func (b *Backend) DecodeDriver() hwcodec.DecodeDriver { return b.dec }

// SetLogger replaces the logger used by probes.
func (b *Backend) SetLogger(l *slog.Logger) { b.logger.Store(l) }
