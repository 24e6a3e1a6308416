package hwcodec_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/hwcodectest"
)

func encodeConfig() hwcodec.EncodeConfig {
	return hwcodec.DefaultEncodeConfig(hwcodec.CapabilityEntry{API: hwcodec.APIVulkan, Format: hwcodec.H264}, 640, 480)
}

func TestEncoderConstructDestroyNoLeak(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{})
	enc, err := hwcodec.OpenEncoder(b, encodeConfig())
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}
	if live := b.Encoder().Live(); live != 1 {
		t.Errorf("Live() after open = %d, want 1", live)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	created, destroyed, invalid := b.Encoder().Counts()
	if created != 1 || destroyed != 1 || invalid != 0 {
		t.Errorf("Counts() = %d, %d, %d; want 1, 1, 0", created, destroyed, invalid)
	}
	if live := b.Encoder().Live(); live != 0 {
		t.Errorf("Live() after close = %d, want 0", live)
	}
}

func TestEncoderUseAfterClose(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{})
	enc, err := hwcodec.OpenEncoder(b, encodeConfig())
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	calls := map[string]error{}
	_, calls["Encode"] = enc.Encode(hwcodec.Frame{})
	_, calls["Flush"] = enc.Flush()
	calls["SetBitrate"] = enc.SetBitrate(1000)
	calls["SetQP"] = enc.SetQP(20, 40)
	calls["SetFramerate"] = enc.SetFramerate(60)
	for name, err := range calls {
		if !errors.Is(err, hwcodec.ErrSessionClosed) {
			t.Errorf("%s after Close = %v, want ErrSessionClosed", name, err)
		}
	}

	_, destroyed, invalid := b.Encoder().Counts()
	if destroyed != 1 || invalid != 0 {
		t.Errorf("driver saw destroyed=%d invalid=%d; want 1, 0", destroyed, invalid)
	}
}

func TestEncoderSetBitrateAppliesToLaterSteps(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{})
	enc, err := hwcodec.OpenEncoder(b, encodeConfig())
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}
	defer enc.Close()

	if _, err := enc.Encode(hwcodec.Frame{PTS: 0}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := enc.SetBitrate(2500); err != nil {
		t.Fatalf("SetBitrate() error = %v", err)
	}
	for pts := int64(1); pts <= 3; pts++ {
		if _, err := enc.Encode(hwcodec.Frame{PTS: pts}); err != nil {
			t.Fatalf("Encode(%d) error = %v", pts, err)
		}
	}

	steps := b.Encoder().Steps()
	if len(steps) != 4 {
		t.Fatalf("len(Steps()) = %d, want 4", len(steps))
	}
	if steps[0].Bitrate != 4000 {
		t.Errorf("step 0 bitrate = %d, want 4000", steps[0].Bitrate)
	}
	for _, s := range steps[1:] {
		if s.Bitrate != 2500 {
			t.Errorf("step pts=%d bitrate = %d, want 2500", s.PTS, s.Bitrate)
		}
	}
	if got := enc.Bitrate(); got != 2500 {
		t.Errorf("Bitrate() = %d, want 2500", got)
	}
}

func TestEncoderTuning(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{NoFramerate: true})
	enc, err := hwcodec.OpenEncoder(b, encodeConfig())
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}
	defer enc.Close()

	if err := enc.SetQP(22, 40); err != nil {
		t.Fatalf("SetQP() error = %v", err)
	}
	if lo, hi := enc.QP(); lo != 22 || hi != 40 {
		t.Errorf("QP() = %d, %d; want 22, 40", lo, hi)
	}
	if err := enc.SetQP(40, 22); !errors.Is(err, hwcodec.ErrInvalidConfig) {
		t.Errorf("SetQP(40, 22) = %v, want ErrInvalidConfig", err)
	}
	if err := enc.SetBitrate(0); !errors.Is(err, hwcodec.ErrInvalidConfig) {
		t.Errorf("SetBitrate(0) = %v, want ErrInvalidConfig", err)
	}

	err = enc.SetFramerate(60)
	if !errors.Is(err, hwcodec.ErrOperation) || !errors.Is(err, hwcodec.ErrUnsupported) {
		t.Errorf("SetFramerate() on fixed-rate driver = %v, want OperationError wrapping ErrUnsupported", err)
	}
	if got := enc.Framerate(); got != 30 {
		t.Errorf("Framerate() after rejected change = %d, want 30", got)
	}

	if _, err := enc.Encode(hwcodec.Frame{}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if s := b.Encoder().Steps()[0]; s.QPMin != 22 || s.QPMax != 40 {
		t.Errorf("step qp = [%d,%d], want [22,40]", s.QPMin, s.QPMax)
	}
}

func TestEncoderOutputCardinality(t *testing.T) {
	tests := []struct {
		name    string
		delay   int
		outputs int
		frames  int
		want    []int
		flushed int
	}{
		{"one per step", 0, 1, 3, []int{1, 1, 1}, 0},
		{"buffered", 2, 1, 4, []int{0, 0, 1, 1}, 2},
		{"several per step", 0, 2, 2, []int{2, 2}, 0},
		{"buffered burst", 1, 3, 2, []int{0, 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := hwcodectest.NewBackend(hwcodectest.Options{Delay: tt.delay, Outputs: tt.outputs})
			enc, err := hwcodec.OpenEncoder(b, encodeConfig())
			if err != nil {
				t.Fatalf("OpenEncoder() error = %v", err)
			}
			defer enc.Close()

			for i := range tt.frames {
				pkts, err := enc.Encode(hwcodec.Frame{PTS: int64(i)})
				if err != nil {
					t.Fatalf("Encode(%d) error = %v", i, err)
				}
				if len(pkts) != tt.want[i] {
					t.Errorf("Encode(%d) returned %d packets, want %d", i, len(pkts), tt.want[i])
				}
			}
			rest, err := enc.Flush()
			if err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if len(rest) != tt.flushed {
				t.Errorf("Flush() returned %d packets, want %d", len(rest), tt.flushed)
			}
		})
	}
}

func TestEncoderKeyframes(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{})
	cfg := encodeConfig()
	cfg.GOP = 2
	enc, err := hwcodec.OpenEncoder(b, cfg)
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}
	defer enc.Close()

	want := []bool{true, false, true, false}
	for i, key := range want {
		pkts, err := enc.Encode(hwcodec.Frame{PTS: int64(i)})
		if err != nil || len(pkts) != 1 {
			t.Fatalf("Encode(%d) = %v, %v", i, pkts, err)
		}
		if pkts[0].Keyframe != key || pkts[0].PTS != int64(i) {
			t.Errorf("packet %d keyframe=%v pts=%d; want %v, %d", i, pkts[0].Keyframe, pkts[0].PTS, key, i)
		}
	}
}

func TestEncoderConstructionFailure(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{FailConstruct: -42})
	_, err := hwcodec.OpenEncoder(b, encodeConfig())

	var ce *hwcodec.ConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("OpenEncoder() error = %v, want *ConstructionError", err)
	}
	if ce.Code != -42 {
		t.Errorf("Code = %d, want -42", ce.Code)
	}
	if !errors.Is(err, hwcodec.ErrConstruction) {
		t.Error("error should match ErrConstruction")
	}
}

func TestEncoderInvalidConfigNeverReachesDriver(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{})
	cfg := encodeConfig()
	cfg.Width = 641

	_, err := hwcodec.OpenEncoder(b, cfg)
	if !errors.Is(err, hwcodec.ErrConstruction) || !errors.Is(err, hwcodec.ErrInvalidConfig) {
		t.Errorf("OpenEncoder(odd width) = %v, want ConstructionError wrapping ErrInvalidConfig", err)
	}
	if created, _, _ := b.Encoder().Counts(); created != 0 {
		t.Errorf("driver constructed %d encoders, want 0", created)
	}
}

func TestEncoderStepFailureStillDestroyable(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{FailStepAt: 2})
	enc, err := hwcodec.OpenEncoder(b, encodeConfig())
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}
	if _, err := enc.Encode(hwcodec.Frame{}); err != nil {
		t.Fatalf("first Encode() error = %v", err)
	}

	_, err = enc.Encode(hwcodec.Frame{})
	var oe *hwcodec.OperationError
	if !errors.As(err, &oe) || oe.Code != -10 {
		t.Fatalf("second Encode() error = %v, want OperationError code -10", err)
	}
	if err := enc.Close(); err != nil {
		t.Errorf("Close() after failed step = %v", err)
	}
	if live := b.Encoder().Live(); live != 0 {
		t.Errorf("Live() = %d, want 0", live)
	}
}

func TestEncoderNoDriver(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{NoEncode: true})
	if _, err := hwcodec.OpenEncoder(b, encodeConfig()); !errors.Is(err, hwcodec.ErrUnsupported) {
		t.Errorf("OpenEncoder() = %v, want ErrUnsupported", err)
	}
	if _, err := hwcodec.OpenEncoder(nil, encodeConfig()); !errors.Is(err, hwcodec.ErrUnsupported) {
		t.Errorf("OpenEncoder(nil) = %v, want ErrUnsupported", err)
	}
}

func TestEncoderConcurrentCallsSerialized(t *testing.T) {
	b := hwcodectest.NewBackend(hwcodectest.Options{})
	enc, err := hwcodec.OpenEncoder(b, encodeConfig())
	if err != nil {
		t.Fatalf("OpenEncoder() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 10 {
				if _, err := enc.Encode(hwcodec.Frame{PTS: int64(i*10 + j)}); err != nil {
					t.Errorf("Encode() error = %v", err)
				}
				_ = enc.SetBitrate(1000 + j)
			}
		}()
	}
	wg.Wait()

	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := len(b.Encoder().Steps()); n != 80 {
		t.Errorf("len(Steps()) = %d, want 80", n)
	}
}
