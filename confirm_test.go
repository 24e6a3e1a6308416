package hwcodec_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/hwcodectest"
)

func registerFake(t *testing.T, opts hwcodectest.Options) *hwcodectest.Backend {
	t.Helper()
	b := hwcodectest.NewBackend(opts)
	hwcodec.RegisterBackend(b.Name(), func() hwcodec.Backend { return b })
	t.Cleanup(func() { hwcodec.UnregisterBackend(b.Name()) })
	return b
}

func TestConfirm(t *testing.T) {
	defer goleak.VerifyNone(t)

	registerFake(t, hwcodectest.Options{
		Name:     "good",
		APIs:     []hwcodec.GraphicsAPI{hwcodec.APIVulkan},
		Formats:  []hwcodec.CodecFormat{hwcodec.H264},
		Adapters: []hwcodec.AdapterDesc{{LUID: 7}, {LUID: 9}},
	})
	registerFake(t, hwcodectest.Options{Name: "broken", FailSelfTest: true})
	registerFake(t, hwcodectest.Options{Name: "absent", ProbeErr: errors.New("no driver")})

	got, err := hwcodec.Confirm(context.Background(), hwcodec.ConfirmOptions{
		DecodeSamples: map[hwcodec.CodecFormat][]byte{hwcodec.H264: {0, 0, 0, 1}},
		Concurrency:   2,
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	entry := hwcodec.CapabilityEntry{API: hwcodec.APIVulkan, Format: hwcodec.H264}
	adapters := []hwcodec.AdapterDesc{{LUID: 7}, {LUID: 9}}
	want := []hwcodec.ConfirmedCapability{
		{Backend: "good", Kind: hwcodec.KindEncode, Entry: entry, Adapters: adapters},
		{Backend: "good", Kind: hwcodec.KindDecode, Entry: entry, Adapters: adapters},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Confirm() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfirmBackendFilter(t *testing.T) {
	registerFake(t, hwcodectest.Options{Name: "one"})
	registerFake(t, hwcodectest.Options{Name: "two"})

	got, err := hwcodec.Confirm(context.Background(), hwcodec.ConfirmOptions{Backends: []string{"TWO"}})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Confirm() returned %d entries, want 2 (encode h264, h265)", len(got))
	}
	for _, c := range got {
		if c.Backend != "two" || c.Kind != hwcodec.KindEncode {
			t.Errorf("unexpected confirmation %+v", c)
		}
	}
}

func TestConfirmCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)
	registerFake(t, hwcodectest.Options{Name: "slow"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := hwcodec.Confirm(ctx, hwcodec.ConfirmOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Confirm(canceled) = %v, want context.Canceled", err)
	}
}

func TestSelfTestHelpers(t *testing.T) {
	good := hwcodectest.NewBackend(hwcodectest.Options{})
	bad := hwcodectest.NewBackend(hwcodectest.Options{FailSelfTest: true})

	if !hwcodec.SelfTestEncode(good.EncodeDriver(), encodeConfig()) {
		t.Error("SelfTestEncode(good) = false")
	}
	if hwcodec.SelfTestEncode(bad.EncodeDriver(), encodeConfig()) {
		t.Error("SelfTestEncode(bad) = true")
	}
	if hwcodec.SelfTestEncode(nil, encodeConfig()) {
		t.Error("SelfTestEncode(nil) = true")
	}
	if !hwcodec.SelfTestDecode(good.DecodeDriver(), decodeConfig(nil), []byte{1}) {
		t.Error("SelfTestDecode(good) = false")
	}
	if hwcodec.SelfTestDecode(good.DecodeDriver(), decodeConfig(nil), nil) {
		t.Error("SelfTestDecode(no sample) = true")
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	opened  int
	closed  int
	outputs []int
	errs    int
}

func (o *recordingObserver) SessionOpened(hwcodec.SessionKind, string, hwcodec.CapabilityEntry) {
	o.mu.Lock()
	o.opened++
	o.mu.Unlock()
}

func (o *recordingObserver) SessionClosed(hwcodec.SessionKind, string, hwcodec.CapabilityEntry) {
	o.mu.Lock()
	o.closed++
	o.mu.Unlock()
}

func (o *recordingObserver) StepDone(_ hwcodec.SessionKind, _ string, n int, _ time.Duration, err error) {
	o.mu.Lock()
	o.outputs = append(o.outputs, n)
	if err != nil {
		o.errs++
	}
	o.mu.Unlock()
}

func TestObserverEvents(t *testing.T) {
	obs := &recordingObserver{}
	b := hwcodectest.NewBackend(hwcodectest.Options{Delay: 1, FailStepAt: 3})
	enc, err := hwcodec.OpenEncoder(b, encodeConfig(), hwcodec.WithObserver(obs))
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}
	for range 3 {
		_, _ = enc.Encode(hwcodec.Frame{})
	}
	_ = enc.Close()
	_ = enc.Close()

	if obs.opened != 1 || obs.closed != 1 {
		t.Errorf("opened=%d closed=%d, want 1, 1", obs.opened, obs.closed)
	}
	if diff := cmp.Diff([]int{0, 1, 0}, obs.outputs); diff != "" {
		t.Errorf("step outputs mismatch (-want +got):\n%s", diff)
	}
	if obs.errs != 1 {
		t.Errorf("errs = %d, want 1", obs.errs)
	}
}
