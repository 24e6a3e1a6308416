package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/hwcodec"
)

func TestVendorsRegistered(t *testing.T) {
	names := hwcodec.BackendNames()
	for _, v := range Vendors() {
		if !slices.Contains(names, v) {
			t.Errorf("BackendNames() = %v, missing %q", names, v)
		}
	}
}

func TestVendorsOrder(t *testing.T) {
	want := []string{hwcodec.BackendNV, hwcodec.BackendAMF, hwcodec.BackendVPL}
	if got := Vendors(); !slices.Equal(got, want) {
		t.Errorf("Vendors() = %v, want %v", got, want)
	}
}

func TestDefault(t *testing.T) {
	b, err := Default()
	if errors.Is(err, ErrBackendNotAvailable) {
		t.Skip("no hardware backend on this machine")
	}
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if len(b.EncodeCapabilities()) == 0 && len(b.DecodeCapabilities()) == 0 {
		t.Errorf("Default() = %s with empty catalogs", b.Name())
	}
}
