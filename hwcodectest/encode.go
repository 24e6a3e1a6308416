package hwcodectest

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/hwcodec"
)

// Step records the tuning in effect when a frame was encoded.
type Step struct {
	Session   int
	PTS       int64
	Bitrate   int
	Framerate int
	QPMin     int
	QPMax     int
}

type encSession struct {
	id        int
	cfg       hwcodec.EncodeConfig
	bitrate   int
	framerate int
	qpMin     int
	qpMax     int
	steps     int
	queue     []hwcodec.Frame
}

// EncodeDriver is a fake hwcodec.EncodeDriver that also implements
// hwcodec.EncodeFlusher.
type EncodeDriver struct {
	opts Options

	mu        sync.Mutex
	live      map[*encSession]struct{}
	nextID    int
	created   int
	destroyed int
	invalid   int
	steps     []Step
}

var (
	_ hwcodec.EncodeDriver  = (*EncodeDriver)(nil)
	_ hwcodec.EncodeFlusher = (*EncodeDriver)(nil)
)

func (d *EncodeDriver) session(h hwcodec.Handle) (*encSession, error) {
	s := (*encSession)(h.Pointer())
	if _, ok := d.live[s]; !ok || s == nil {
		d.invalid++
		return nil, &hwcodec.OperationError{Backend: d.opts.Name, Op: "handle", Code: -2,
			Err: fmt.Errorf("hwcodectest: handle %p is not live", s)}
	}
	return s, nil
}

func (d *EncodeDriver) NewEncoder(cfg hwcodec.EncodeConfig) (hwcodec.Handle, error) {
	if d.opts.FailConstruct != 0 {
		return hwcodec.Handle{}, &hwcodec.ConstructionError{Backend: d.opts.Name, Entry: cfg.Entry(),
			Code: d.opts.FailConstruct, Err: ErrInjected}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	s := &encSession{
		id:        d.nextID,
		cfg:       cfg,
		bitrate:   cfg.BitrateKbps,
		framerate: cfg.Framerate,
		qpMin:     cfg.QPMin,
		qpMax:     cfg.QPMax,
	}
	d.live[s] = struct{}{}
	d.created++
	return hwcodec.NewHandle(unsafe.Pointer(s)), nil
}

func (d *EncodeDriver) Encode(h hwcodec.Handle, frame hwcodec.Frame) ([]hwcodec.Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.session(h)
	if err != nil {
		return nil, err
	}
	s.steps++
	if d.opts.FailStepAt > 0 && s.steps == d.opts.FailStepAt {
		return nil, &hwcodec.OperationError{Backend: d.opts.Name, Op: "encode", Code: -10, Err: ErrInjected}
	}
	d.steps = append(d.steps, Step{
		Session:   s.id,
		PTS:       frame.PTS,
		Bitrate:   s.bitrate,
		Framerate: s.framerate,
		QPMin:     s.qpMin,
		QPMax:     s.qpMax,
	})

	s.queue = append(s.queue, frame)
	if len(s.queue) <= d.opts.Delay {
		return nil, hwcodec.ErrNoOutput
	}
	f := s.queue[0]
	s.queue = s.queue[1:]
	return d.packets(s, f), nil
}

func (d *EncodeDriver) packets(s *encSession, f hwcodec.Frame) []hwcodec.Packet {
	out := make([]hwcodec.Packet, 0, d.opts.Outputs)
	for i := range d.opts.Outputs {
		out = append(out, hwcodec.Packet{
			Data:     []byte(fmt.Sprintf("%s pts=%d kbps=%d part=%d", s.cfg.Format, f.PTS, s.bitrate, i)),
			Keyframe: s.cfg.GOP > 0 && f.PTS%int64(s.cfg.GOP) == 0 && i == 0,
			PTS:      f.PTS,
		})
	}
	return out
}

// FlushEncoder releases every buffered frame.
func (d *EncodeDriver) FlushEncoder(h hwcodec.Handle) ([]hwcodec.Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.session(h)
	if err != nil {
		return nil, err
	}
	var out []hwcodec.Packet
	for _, f := range s.queue {
		out = append(out, d.packets(s, f)...)
	}
	s.queue = nil
	return out, nil
}

func (d *EncodeDriver) DestroyEncoder(h hwcodec.Handle) error {
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

func (d *EncodeDriver) TestEncode(cfg hwcodec.EncodeConfig) ([]hwcodec.AdapterDesc, error) {
	if d.opts.FailSelfTest {
		return nil, ErrInjected
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return append([]hwcodec.AdapterDesc(nil), d.opts.Adapters...), nil
}

func (d *EncodeDriver) SetBitrate(h hwcodec.Handle, kbps int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.session(h)
	if err != nil {
		return err
	}
	s.bitrate = kbps
	return nil
}

func (d *EncodeDriver) SetQP(h hwcodec.Handle, qpMin, qpMax int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.session(h)
	if err != nil {
		return err
	}
	s.qpMin, s.qpMax = qpMin, qpMax
	return nil
}

func (d *EncodeDriver) SetFramerate(h hwcodec.Handle, fps int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.session(h)
	if err != nil {
		return err
	}
	if d.opts.NoFramerate {
		return &hwcodec.OperationError{Backend: d.opts.Name, Op: "set framerate", Code: -3, Err: hwcodec.ErrUnsupported}
	}
	s.framerate = fps
	return nil
}

// Live returns the number of native handles not yet destroyed.
func (d *EncodeDriver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Counts returns how many handles were created and destroyed, and how many
// calls arrived with a handle that was not live.
func (d *EncodeDriver) Counts() (created, destroyed, invalid int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created, d.destroyed, d.invalid
}

// Steps returns every encode step recorded so far.
func (d *EncodeDriver) Steps() []Step {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Step(nil), d.steps...)
}
