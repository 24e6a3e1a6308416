package hwcodec

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var errNoDriver = errors.New("driver missing")

func TestCatalogProbeFailureIsEmpty(t *testing.T) {
	c := NewCatalog("test", func() error { return errNoDriver },
		[]GraphicsAPI{APIDX11, APIVulkan}, DefaultFormats())

	got := c.Capabilities()
	if got == nil {
		t.Fatal("Capabilities() = nil, want empty non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("Capabilities() = %v, want empty", got)
	}
}

func TestCatalogCrossProduct(t *testing.T) {
	c := NewCatalog("test", func() error { return nil },
		[]GraphicsAPI{APIOpenCL, APIVulkan}, DefaultFormats())

	want := []CapabilityEntry{
		{APIOpenCL, H264},
		{APIOpenCL, H265},
		{APIVulkan, H264},
		{APIVulkan, H265},
	}
	if diff := cmp.Diff(want, c.Capabilities()); diff != "" {
		t.Errorf("Capabilities() mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogIdempotent(t *testing.T) {
	calls := 0
	c := NewCatalog("test", func() error { calls++; return nil },
		[]GraphicsAPI{APIDX11}, DefaultFormats())

	first := c.Capabilities()
	second := c.Capabilities()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second query differs (-first +second):\n%s", diff)
	}
	if calls != 2 {
		t.Errorf("probe ran %d times, want 2", calls)
	}

	first[0].API = APIVulkan
	if c.Capabilities()[0].API != APIDX11 {
		t.Error("mutating a result changed later queries")
	}
}

func TestCatalogNoDuplicates(t *testing.T) {
	c := NewCatalog("test", nil,
		[]GraphicsAPI{APIVulkan, APIVulkan, APIOpenCL},
		[]CodecFormat{H264, H265, H264})

	got := c.Capabilities()
	seen := make(map[CapabilityEntry]bool)
	for _, e := range got {
		if seen[e] {
			t.Errorf("duplicate entry %v", e)
		}
		seen[e] = true
	}
	if len(got) != 4 {
		t.Errorf("len(Capabilities()) = %d, want 4", len(got))
	}
}

func TestCatalogNoPlatformAPIs(t *testing.T) {
	c := NewCatalog("test", nil, nil, DefaultFormats())
	if got := c.Capabilities(); len(got) != 0 {
		t.Errorf("Capabilities() = %v, want empty", got)
	}
}

func TestContains(t *testing.T) {
	entries := []CapabilityEntry{{APIDX11, H264}}
	if !Contains(entries, CapabilityEntry{APIDX11, H264}) {
		t.Error("Contains() = false for present entry")
	}
	if Contains(entries, CapabilityEntry{APIDX11, H265}) {
		t.Error("Contains() = true for absent entry")
	}
}
