package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/surface"
)

type presentReport struct {
	Kind    string                `json:"kind" yaml:"kind"`
	Adapter string                `json:"adapter" yaml:"adapter"`
	Type    string                `json:"type" yaml:"type"`
	Width   int                   `json:"width" yaml:"width"`
	Height  int                   `json:"height" yaml:"height"`
	Format  hwcodec.SurfaceFormat `json:"format" yaml:"format"`
	Dump    string                `json:"dump,omitempty" yaml:"dump,omitempty"`
}

func (a *app) presentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "present",
		Short: "Create a presentation surface and render a test frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.runPresent(ctx, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.String("kind", "", "surface kind: gpu or image (default: best available)")
	f.Int("width", 640, "surface width")
	f.Int("height", 360, "surface height")
	f.String("format", "rgba", "surface format: rgba or bgra")
	f.String("adapter", "", "preferred adapter name")
	f.String("dump", "", "write the presented frame to this PNG file")
	return cmd
}

func (a *app) runPresent(ctx context.Context, w io.Writer) error {
	format, err := hwcodec.ParseSurfaceFormat(a.v.GetString("format"))
	if err != nil {
		return err
	}
	opts := surface.DefaultOptions(a.v.GetInt("width"), a.v.GetInt("height"))
	opts.Format = format
	opts.Adapter = a.v.GetString("adapter")

	var s surface.Surface
	if kind := a.v.GetString("kind"); kind != "" {
		s, err = surface.NewSurfaceByName(ctx, kind, opts)
	} else {
		s, err = surface.NewSurface(ctx, opts)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Destroy(); err != nil {
			hwcodec.Logger().Warn("hwprobe: destroy surface", "err", err)
		}
	}()

	if err := renderTestFrame(s); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	info := s.Device().AdapterInfo()
	report := presentReport{
		Kind:    surfaceKind(s),
		Adapter: info.Name,
		Type:    info.Type.String(),
		Width:   s.Width(),
		Height:  s.Height(),
		Format:  format,
	}
	if path := a.v.GetString("dump"); path != "" {
		if err := dumpFrame(path, s); err != nil {
			return err
		}
		report.Dump = path
	}

	return render(w, a.v.GetString("output"), report, func(w io.Writer) error {
		fmt.Fprintf(w, "kind\t%s\n", report.Kind)
		fmt.Fprintf(w, "adapter\t%s (%s)\n", report.Adapter, report.Type)
		fmt.Fprintf(w, "size\t%dx%d\n", report.Width, report.Height)
		fmt.Fprintf(w, "format\t%s\n", report.Format)
		if report.Dump != "" {
			fmt.Fprintf(w, "dump\t%s\n", report.Dump)
		}
		return nil
	})
}

func surfaceKind(s surface.Surface) string {
	switch s.(type) {
	case *surface.GPUSurface:
		return "gpu"
	case *surface.ImageSurface:
		return "image"
	default:
		return fmt.Sprintf("%T", s)
	}
}

// renderTestFrame presents a quarter-size color bar pattern allocated on
// the surface device.
func renderTestFrame(s surface.Surface) error {
	img := colorBars(max(s.Width()/4, 1), max(s.Height()/4, 1))
	dev := s.Device()
	if _, ok := s.(*surface.GPUSurface); ok {
		tex, err := surface.NewGPUTexture(dev, img.Rect.Dx(), img.Rect.Dy(), hwcodec.SurfaceRGBA.TextureFormat())
		if err != nil {
			return err
		}
		defer tex.Release()
		if err := tex.Upload(img.Pix); err != nil {
			return err
		}
		return s.Render(tex)
	}
	tex, err := surface.NewImageTexture(dev, img)
	if err != nil {
		return err
	}
	return s.Render(tex)
}

var bars = []color.RGBA{
	{0xff, 0xff, 0xff, 0xff},
	{0xff, 0xff, 0x00, 0xff},
	{0x00, 0xff, 0xff, 0xff},
	{0x00, 0xff, 0x00, 0xff},
	{0xff, 0x00, 0xff, 0xff},
	{0xff, 0x00, 0x00, 0xff},
	{0x00, 0x00, 0xff, 0xff},
}

func colorBars(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		c := bars[x*len(bars)/w]
		for y := range h {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func dumpFrame(path string, s surface.Surface) error {
	snap, ok := s.(surface.Snapshotter)
	if !ok {
		return fmt.Errorf("dump: %T cannot read back frames", s)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := surface.DumpPNG(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
