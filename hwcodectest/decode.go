package hwcodectest

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/hwcodec"
)

// Decoded texture size.
const (
	TextureWidth  = 64
	TextureHeight = 48
)

type decSession struct {
	dev    gpucontext.Device
	steps  int
	queued int
	seq    int
}

// DecodeDriver is a fake hwcodec.DecodeDriver. Textures it produces are
// bound to the config's device, or to a private device when none is set.
type DecodeDriver struct {
	opts Options

	mu        sync.Mutex
	live      map[*decSession]struct{}
	created   int
	destroyed int
	invalid   int
}

var _ hwcodec.DecodeDriver = (*DecodeDriver)(nil)

func (d *DecodeDriver) session(h hwcodec.Handle) (*decSession, error) {
	s := (*decSession)(h.Pointer())
	if _, ok := d.live[s]; !ok || s == nil {
		d.invalid++
		return nil, &hwcodec.OperationError{Backend: d.opts.Name, Op: "handle", Code: -2,
			Err: fmt.Errorf("hwcodectest: handle %p is not live", s)}
	}
	return s, nil
}

func (d *DecodeDriver) NewDecoder(cfg hwcodec.DecodeConfig) (hwcodec.Handle, error) {
	if d.opts.FailConstruct != 0 {
		return hwcodec.Handle{}, &hwcodec.ConstructionError{Backend: d.opts.Name, Entry: cfg.Entry(),
			Code: d.opts.FailConstruct, Err: ErrInjected}
	}
	var dev gpucontext.Device = NewDevice(d.opts.Name + "-private")
	if cfg.Device != nil {
		dev = cfg.Device.Device()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &decSession{dev: dev}
	d.live[s] = struct{}{}
	d.created++
	return hwcodec.NewHandle(unsafe.Pointer(s)), nil
}

func (d *DecodeDriver) Decode(h hwcodec.Handle, packet []byte) ([]hwcodec.ForeignTexture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.session(h)
	if err != nil {
		return nil, err
	}
	s.steps++
	if d.opts.FailStepAt > 0 && s.steps == d.opts.FailStepAt {
		return nil, &hwcodec.OperationError{Backend: d.opts.Name, Op: "decode", Code: -10, Err: ErrInjected}
	}
	if len(packet) == 0 {
		return nil, hwcodec.ErrNoOutput
	}

	s.queued++
	if s.queued <= d.opts.Delay {
		return nil, hwcodec.ErrNoOutput
	}
	s.queued--

	out := make([]hwcodec.ForeignTexture, 0, d.opts.Outputs)
	for range d.opts.Outputs {
		s.seq++
		out = append(out, &Texture{
			W:   TextureWidth,
			H:   TextureHeight,
			Fmt: gputypes.TextureFormatBGRA8Unorm,
			Dev: s.dev,
			Seq: s.seq,
		})
	}
	return out, nil
}

func (d *DecodeDriver) DestroyDecoder(h hwcodec.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.session(h)
	if err != nil {
		return err
	}
	delete(d.live, s)
	d.destroyed++
	return nil
}

func (d *DecodeDriver) TestDecode(cfg hwcodec.DecodeConfig, sample []byte) ([]hwcodec.AdapterDesc, error) {
	if d.opts.FailSelfTest {
		return nil, ErrInjected
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(sample) == 0 {
		return nil, nil
	}
	return append([]hwcodec.AdapterDesc(nil), d.opts.Adapters...), nil
}

// Live returns the number of native handles not yet destroyed.
func (d *DecodeDriver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Counts returns how many handles were created and destroyed, and how many
// calls arrived with a handle that was not live.
func (d *DecodeDriver) Counts() (created, destroyed, invalid int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created, d.destroyed, d.invalid
}
