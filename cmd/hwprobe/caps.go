package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/hwcodec"
)

// Directions accepted by caps.
const (
	dirEncode = "encode"
	dirDecode = "decode"
	dirBoth   = "both"
)

type capsReport struct {
	Encode    []hwcodec.BackendCapability   `json:"encode,omitempty" yaml:"encode,omitempty"`
	Decode    []hwcodec.BackendCapability   `json:"decode,omitempty" yaml:"decode,omitempty"`
	Confirmed []hwcodec.ConfirmedCapability `json:"confirmed,omitempty" yaml:"confirmed,omitempty"`
}

func (a *app) capsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caps",
		Short: "List the codec capabilities of the registered backends",
		Long: `List the eligible encode and decode catalog entries of every registered
backend. With --confirm each entry is self-tested on the real hardware
and only entries that passed on at least one adapter are reported as
confirmed. Decode entries are confirmed only for formats given a sample
keyframe with --sample.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCaps(cmd.Context(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.String("direction", dirBoth, "encode, decode or both")
	f.Bool("confirm", false, "self-test every eligible entry")
	f.StringSlice("backend", nil, "restrict to the named backends")
	f.StringToString("sample", nil, "decode keyframe per format, e.g. h264=key.h264")
	f.Int("width", 1280, "self-test encoder width")
	f.Int("height", 720, "self-test encoder height")
	f.Int("concurrency", 0, "self-tests running at once (0 = GOMAXPROCS)")
	f.Duration("timeout", 30*time.Second, "confirmation timeout")
	return cmd
}

func (a *app) runCaps(ctx context.Context, w io.Writer) error {
	dir := a.v.GetString("direction")
	switch dir {
	case dirEncode, dirDecode, dirBoth:
	default:
		return fmt.Errorf("direction must be encode, decode or both, got %q", dir)
	}
	backends := a.v.GetStringSlice("backend")

	var report capsReport
	if dir != dirDecode {
		report.Encode = filterBackends(hwcodec.EncodeCapabilities(), backends)
		a.metrics.RecordCatalog(hwcodec.KindEncode, report.Encode)
	}
	if dir != dirEncode {
		report.Decode = filterBackends(hwcodec.DecodeCapabilities(), backends)
		a.metrics.RecordCatalog(hwcodec.KindDecode, report.Decode)
	}

	if a.v.GetBool("confirm") {
		confirmed, err := a.confirm(ctx, dir, backends)
		if err != nil {
			return err
		}
		report.Confirmed = confirmed
		a.metrics.RecordConfirmed(confirmed)
	}

	return render(w, a.v.GetString("output"), report, func(w io.Writer) error {
		return writeCapsText(w, report)
	})
}

func (a *app) confirm(ctx context.Context, dir string, backends []string) ([]hwcodec.ConfirmedCapability, error) {
	samples, err := loadSamples(a.v.GetStringMapString("sample"))
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, a.v.GetDuration("timeout"))
	defer cancel()

	confirmed, err := hwcodec.Confirm(ctx, hwcodec.ConfirmOptions{
		Backends:      backends,
		Width:         a.v.GetInt("width"),
		Height:        a.v.GetInt("height"),
		DecodeSamples: samples,
		Concurrency:   a.v.GetInt("concurrency"),
	})
	if err != nil {
		return nil, fmt.Errorf("confirm: %w", err)
	}

	out := confirmed[:0]
	for _, c := range confirmed {
		if dir == dirBoth || c.Kind.String() == dir {
			out = append(out, c)
		}
	}
	return out, nil
}

// loadSamples reads the sample keyframes named by format=path pairs.
func loadSamples(paths map[string]string) (map[hwcodec.CodecFormat][]byte, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	samples := make(map[hwcodec.CodecFormat][]byte, len(paths))
	for name, path := range paths {
		f, err := hwcodec.ParseCodecFormat(name)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		samples[f] = data
	}
	return samples, nil
}

func filterBackends(caps []hwcodec.BackendCapability, names []string) []hwcodec.BackendCapability {
	if len(names) == 0 {
		return caps
	}
	var out []hwcodec.BackendCapability
	for _, c := range caps {
		if hwcodec.BackendSelected(names, c.Backend) {
			out = append(out, c)
		}
	}
	return out
}

func writeCapsText(w io.Writer, r capsReport) error {
	fmt.Fprintln(w, "KIND\tBACKEND\tAPI\tFORMAT\tSTATUS\tADAPTERS")
	rows := 0
	confirmedOn := func(kind hwcodec.SessionKind, bc hwcodec.BackendCapability) (int, bool) {
		for _, c := range r.Confirmed {
			if c.Kind == kind && c.Backend == bc.Backend && c.Entry == bc.Entry {
				return len(c.Adapters), true
			}
		}
		return 0, false
	}
	write := func(kind hwcodec.SessionKind, caps []hwcodec.BackendCapability) {
		for _, bc := range caps {
			status, adapters := "eligible", "-"
			if n, ok := confirmedOn(kind, bc); ok {
				status, adapters = "confirmed", fmt.Sprint(n)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", kind, bc.Backend, bc.Entry.API, bc.Entry.Format, status, adapters)
			rows++
		}
	}
	write(hwcodec.KindEncode, r.Encode)
	write(hwcodec.KindDecode, r.Decode)
	if rows == 0 {
		fmt.Fprintln(w, "(no hardware codec available)")
	}
	return nil
}
