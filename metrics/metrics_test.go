package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/hwcodectest"
)

func openEncoder(t *testing.T, b hwcodec.Backend, c *Collector) *hwcodec.Encoder {
	t.Helper()
	cfg := hwcodec.DefaultEncodeConfig(hwcodec.CapabilityEntry{API: hwcodec.APIVulkan, Format: hwcodec.H264}, 64, 48)
	enc, err := hwcodec.OpenEncoder(b, cfg, hwcodec.WithObserver(c))
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}
	return enc
}

func TestSessionGauge(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	b := hwcodectest.NewBackend(hwcodectest.Options{})

	enc := openEncoder(t, b, c)
	active := c.active.WithLabelValues("encode", "fake", "vulkan", "h264")
	if got := testutil.ToFloat64(active); got != 1 {
		t.Errorf("sessions_active = %v, want 1", got)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := testutil.ToFloat64(active); got != 0 {
		t.Errorf("sessions_active after Close = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.opened.WithLabelValues("encode", "fake")); got != 1 {
		t.Errorf("sessions_opened_total = %v, want 1", got)
	}
}

func TestStepResults(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	b := hwcodectest.NewBackend(hwcodectest.Options{Delay: 1, Outputs: 2, FailStepAt: 3})
	enc := openEncoder(t, b, c)
	defer enc.Close()

	for i := range 3 {
		_, _ = enc.Encode(hwcodec.Frame{PTS: int64(i)})
	}

	tests := []struct {
		result string
		want   float64
	}{
		{resultEmpty, 1},
		{resultOK, 1},
		{resultError, 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(c.steps.WithLabelValues("encode", "fake", tt.result)); got != tt.want {
			t.Errorf("steps_total{result=%q} = %v, want %v", tt.result, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(c.outputs.WithLabelValues("encode", "fake")); got != 2 {
		t.Errorf("step_outputs_total = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(c.stepDuration); n != 1 {
		t.Errorf("step_duration_seconds series = %d, want 1", n)
	}
	if n := testutil.CollectAndCount(c.stepErrors); n != 1 {
		t.Errorf("step_errors_total series = %d, want 1", n)
	}
}

func TestRecordCatalog(t *testing.T) {
	c := NewCollector(nil)
	caps := []hwcodec.BackendCapability{
		{Backend: "nv", Entry: hwcodec.CapabilityEntry{API: hwcodec.APICUDA, Format: hwcodec.H264}},
		{Backend: "nv", Entry: hwcodec.CapabilityEntry{API: hwcodec.APICUDA, Format: hwcodec.H265}},
	}
	c.RecordCatalog(hwcodec.KindDecode, caps)
	c.RecordConfirmed([]hwcodec.ConfirmedCapability{{Backend: "nv", Kind: hwcodec.KindDecode, Entry: caps[1].Entry}})

	want := `
# HELP hwcodec_capability_info Catalog entries offered by each backend (1 = eligible, 2 = confirmed).
# TYPE hwcodec_capability_info gauge
hwcodec_capability_info{api="cuda",backend="nv",format="h264",kind="decode"} 1
hwcodec_capability_info{api="cuda",backend="nv",format="h265",kind="decode"} 2
`
	if err := testutil.CollectAndCompare(c.capabilities, strings.NewReader(want)); err != nil {
		t.Errorf("capability_info mismatch: %v", err)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{hwcodec.ErrSessionClosed, "closed"},
		{&hwcodec.OperationError{Op: "encode", Code: -12}, "-12"},
		{hwcodec.ErrUnsupported, "unknown"},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
