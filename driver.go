package hwcodec

// EncodeDriver is the encode dispatch table of one vendor SDK. Every method
// except NewEncoder and TestEncode takes a handle returned by NewEncoder of
// the same driver.
//
// Drivers do not guard against concurrent or post-destroy use. Callers
// should hold sessions through Encoder, which enforces both.
type EncodeDriver interface {
	// NewEncoder constructs a native encoder. Safe to call repeatedly for
	// independent sessions.
	NewEncoder(cfg EncodeConfig) (Handle, error)

	// Encode consumes one frame and returns the packets that became
	// available, possibly none.
	Encode(h Handle, frame Frame) ([]Packet, error)

	// DestroyEncoder releases the native encoder. Calling it twice for the
	// same handle is undefined.
	DestroyEncoder(h Handle) error

	// TestEncode constructs a throwaway encoder on every candidate adapter
	// and returns the adapters that encoded a frame.
	TestEncode(cfg EncodeConfig) ([]AdapterDesc, error)

	SetBitrate(h Handle, kbps int) error
	SetQP(h Handle, qpMin, qpMax int) error
	SetFramerate(h Handle, fps int) error
}

// EncodeFlusher is implemented by encode drivers that buffer frames
// internally. FlushEncoder returns every pending packet.
type EncodeFlusher interface {
	FlushEncoder(h Handle) ([]Packet, error)
}

// DecodeDriver is the decode dispatch table of one vendor SDK.
type DecodeDriver interface {
	NewDecoder(cfg DecodeConfig) (Handle, error)

	// Decode consumes one compressed packet and returns the textures that
	// became available, possibly none. Textures stay valid until the next
	// Decode or DestroyDecoder call on the same handle.
	Decode(h Handle, packet []byte) ([]ForeignTexture, error)

	DestroyDecoder(h Handle) error

	// TestDecode decodes sample on every candidate adapter and returns the
	// adapters that produced output.
	TestDecode(cfg DecodeConfig, sample []byte) ([]AdapterDesc, error)
}

// SelfTestEncode reports whether at least one adapter passes TestEncode.
func SelfTestEncode(d EncodeDriver, cfg EncodeConfig) bool {
	if d == nil {
		return false
	}
	adapters, err := d.TestEncode(cfg)
	return err == nil && len(adapters) > 0
}

// SelfTestDecode reports whether at least one adapter passes TestDecode.
func SelfTestDecode(d DecodeDriver, cfg DecodeConfig, sample []byte) bool {
	if d == nil {
		return false
	}
	adapters, err := d.TestDecode(cfg, sample)
	return err == nil && len(adapters) > 0
}
