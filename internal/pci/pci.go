// Package pci enumerates display adapters through sysfs so vendor backends
// can skip loading an SDK when the machine has no device of that vendor.
package pci

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Vendor is a PCI vendor ID.
type Vendor uint16

// Vendors with a bundled hardware codec backend.
const (
	VendorAMD    Vendor = 0x1002
	VendorNVIDIA Vendor = 0x10de
	VendorIntel  Vendor = 0x8086
)

func (v Vendor) String() string {
	switch v {
	case VendorAMD:
		return "amd"
	case VendorNVIDIA:
		return "nvidia"
	case VendorIntel:
		return "intel"
	default:
		return fmt.Sprintf("0x%04x", uint16(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Vendor) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// ErrNoSysfs is returned by Scan when the DRM class directory is missing,
// as on non-Linux systems or in minimal containers.
var ErrNoSysfs = errors.New("pci: drm sysfs not available")

// Device is one DRM card.
type Device struct {
	Card       string `json:"card" yaml:"card"`
	Vendor     Vendor `json:"vendor" yaml:"vendor"`
	DeviceID   uint16 `json:"device_id" yaml:"device_id"`
	Driver     string `json:"driver,omitempty" yaml:"driver,omitempty"`
	RenderNode string `json:"render_node,omitempty" yaml:"render_node,omitempty"`

	// Accessible reports whether the current user may open RenderNode.
	Accessible bool `json:"accessible" yaml:"accessible"`
}

const drmClass = "class/drm"

// ScanFS lists the DRM cards of a sysfs tree rooted at fsys. Connector
// entries such as card0-DP-1 are skipped. Cards are ordered by name.
func ScanFS(fsys fs.FS) ([]Device, error) {
	entries, err := fs.ReadDir(fsys, drmClass)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSysfs
	}
	if err != nil {
		return nil, fmt.Errorf("pci: read %s: %w", drmClass, err)
	}

	var out []Device
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "card") || strings.Contains(name, "-") {
			continue
		}
		dir := path.Join(drmClass, name, "device")
		vendor, err := readHex(fsys, path.Join(dir, "vendor"))
		if err != nil {
			continue
		}
		dev := Device{Card: name, Vendor: Vendor(vendor)}
		if id, err := readHex(fsys, path.Join(dir, "device")); err == nil {
			dev.DeviceID = id
		}
		dev.Driver = readDriver(fsys, path.Join(dir, "uevent"))
		dev.RenderNode = findRenderNode(fsys, path.Join(dir, "drm"))
		out = append(out, dev)
	}
	slices.SortFunc(out, func(a, b Device) int { return strings.Compare(a.Card, b.Card) })
	return out, nil
}

// Scan lists the DRM cards of the running system and checks access to
// their render nodes.
func Scan() ([]Device, error) {
	devs, err := ScanFS(os.DirFS("/sys"))
	if err != nil {
		return nil, err
	}
	for i := range devs {
		if devs[i].RenderNode != "" {
			devs[i].Accessible = canOpen(devs[i].RenderNode)
		}
	}
	return devs, nil
}

var detect = sync.OnceValues(Scan)

// Present reports whether a card of vendor v is installed. When the
// system cannot be scanned the answer is true, leaving the decision to
// the vendor SDK.
func Present(v Vendor) bool {
	devs, err := detect()
	if err != nil {
		return true
	}
	return HasVendor(devs, v)
}

// HasVendor reports whether devs contains a card of vendor v.
func HasVendor(devs []Device, v Vendor) bool {
	return slices.ContainsFunc(devs, func(d Device) bool { return d.Vendor == v })
}

func readHex(fsys fs.FS, name string) (uint16, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return 0, err
	}
	s := strings.TrimPrefix(strings.TrimSpace(string(b)), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("pci: parse %s: %w", name, err)
	}
	return uint16(v), nil
}

func readDriver(fsys fs.FS, name string) string {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return ""
	}
	for line := range strings.Lines(string(b)) {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "DRIVER="); ok {
			return v
		}
	}
	return ""
}

func findRenderNode(fsys fs.FS, dir string) string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "renderD") {
			return "/dev/dri/" + e.Name()
		}
	}
	return ""
}
