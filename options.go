package hwcodec

// SessionOption configures an Encoder or Decoder at construction.
//
// Example:
//
//	enc, err := hwcodec.OpenEncoder(b, cfg, hwcodec.WithObserver(collector))
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	observer Observer
	backend  string
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		observer: nopObserver{},
		backend:  "unknown",
	}
}

// WithObserver reports session events to o. A nil observer is ignored.
func WithObserver(o Observer) SessionOption {
	return func(so *sessionOptions) {
		if o != nil {
			so.observer = o
		}
	}
}

// WithBackendName labels the session for errors, logs and observations.
// OpenEncoder and OpenDecoder set it from the backend automatically.
func WithBackendName(name string) SessionOption {
	return func(so *sessionOptions) {
		if name != "" {
			so.backend = name
		}
	}
}

func applySessionOptions(opts []SessionOption) sessionOptions {
	so := defaultSessionOptions()
	for _, opt := range opts {
		opt(&so)
	}
	return so
}
