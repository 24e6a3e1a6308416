package hwcodec

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ConfirmOptions controls Confirm.
type ConfirmOptions struct {
	// Backends restricts confirmation to the named backends, matched as
	// BackendSelected does. Empty means every registered backend.
	Backends []string

	// Width and Height size the throwaway encoder. Zero means 1280x720.
	Width, Height int

	// DecodeSamples holds one compressed keyframe per format. Decode
	// entries without a sample are left unconfirmed.
	DecodeSamples map[CodecFormat][]byte

	// Concurrency bounds the self-tests running at once. Zero means
	// GOMAXPROCS.
	Concurrency int
}

// ConfirmedCapability is a catalog entry whose self-test passed on at
// least one adapter.
type ConfirmedCapability struct {
	Backend  string          `json:"backend" yaml:"backend"`
	Kind     SessionKind     `json:"kind" yaml:"kind"`
	Entry    CapabilityEntry `json:"entry" yaml:"entry"`
	Adapters []AdapterDesc   `json:"adapters" yaml:"adapters"`
}

type confirmTask struct {
	backend Backend
	kind    SessionKind
	entry   CapabilityEntry
}

// Confirm runs the self-test of every eligible catalog entry and returns
// those that passed, in catalog order. Self-test failures only drop the
// entry; the returned error is non-nil only when ctx is done.
func Confirm(ctx context.Context, opts ConfirmOptions) ([]ConfirmedCapability, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var tasks []confirmTask
	for _, b := range registeredBackends() {
		if !BackendSelected(opts.Backends, b.Name()) {
			continue
		}
		if b.EncodeDriver() != nil {
			for _, e := range b.EncodeCapabilities() {
				tasks = append(tasks, confirmTask{backend: b, kind: KindEncode, entry: e})
			}
		}
		if b.DecodeDriver() != nil {
			for _, e := range b.DecodeCapabilities() {
				if _, ok := opts.DecodeSamples[e.Format]; ok {
					tasks = append(tasks, confirmTask{backend: b, kind: KindDecode, entry: e})
				}
			}
		}
	}

	results := make([][]AdapterDesc, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runSelfTest(task, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []ConfirmedCapability
	for i, task := range tasks {
		if len(results[i]) == 0 {
			continue
		}
		out = append(out, ConfirmedCapability{
			Backend:  task.backend.Name(),
			Kind:     task.kind,
			Entry:    task.entry,
			Adapters: results[i],
		})
		Logger().Info("hwcodec: capability confirmed", "backend", task.backend.Name(),
			"kind", task.kind.String(), "entry", task.entry.String(), "adapters", len(results[i]))
	}
	return out, nil
}

func runSelfTest(task confirmTask, opts ConfirmOptions) []AdapterDesc {
	var (
		adapters []AdapterDesc
		err      error
	)
	switch task.kind {
	case KindEncode:
		cfg := DefaultEncodeConfig(task.entry, opts.Width, opts.Height)
		adapters, err = task.backend.EncodeDriver().TestEncode(cfg)
	case KindDecode:
		cfg := DecodeConfig{API: task.entry.API, Format: task.entry.Format}
		adapters, err = task.backend.DecodeDriver().TestDecode(cfg, opts.DecodeSamples[task.entry.Format])
	}
	if err != nil {
		Logger().Debug("hwcodec: self-test failed", "backend", task.backend.Name(),
			"kind", task.kind.String(), "entry", task.entry.String(), "err", err)
		return nil
	}
	return adapters
}
