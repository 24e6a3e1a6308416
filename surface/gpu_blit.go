// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu"
)

//go:embed shaders/blit.wgsl
var blitShaderSource string

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	b, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}

// blittable reports whether a texture of format f can be sampled by the
// blit shader.
func blittable(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatRGBA16Float:
		return true
	default:
		return false
	}
}

// blitPipeline draws a sampled frame over the whole target. It is built
// on first use and lives as long as the surface.
type blitPipeline struct {
	shader   *wgpu.ShaderModule
	layout   *wgpu.BindGroupLayout
	pipeline *wgpu.PipelineLayout
	render   *wgpu.RenderPipeline
	sampler  *wgpu.Sampler
}

func newBlitPipeline(dev *wgpu.Device, target gputypes.TextureFormat) (_ *blitPipeline, err error) {
	bp := &blitPipeline{}
	defer func() {
		if err != nil {
			bp.release()
		}
	}()

	spirv, err := compileSPIRV(blitShaderSource)
	if err != nil {
		return nil, err
	}
	bp.shader, err = dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{Label: "hwcodec-blit", SPIRV: spirv})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	bp.layout, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "hwcodec-blit",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	bp.pipeline, err = dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "hwcodec-blit",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bp.layout},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	bp.render, err = dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:       "hwcodec-blit",
		Layout:      bp.pipeline,
		Vertex:      wgpu.VertexState{Module: bp.shader, EntryPoint: "vs_main"},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &wgpu.FragmentState{
			Module:     bp.shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    target,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}

	bp.sampler, err = dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        "hwcodec-blit",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		LodMaxClamp:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	return bp, nil
}

// draw records and submits one fullscreen pass sampling src.
func (bp *blitPipeline) draw(s *GPUSurface, src *wgpu.Texture) error {
	view, err := s.device.CreateTextureView(src, &wgpu.TextureViewDescriptor{
		Label:           "hwcodec-blit-src",
		Format:          src.Format(),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return err
	}
	defer view.Release()

	group, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "hwcodec-blit",
		Layout: bp.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: bp.sampler},
		},
	})
	if err != nil {
		return err
	}
	defer group.Release()

	enc, err := s.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "hwcodec-blit"})
	if err != nil {
		return err
	}
	pass, err := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "hwcodec-blit",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    s.targetView,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	if err != nil {
		enc.DiscardEncoding()
		return err
	}
	pass.SetPipeline(bp.render)
	pass.SetBindGroup(0, group, nil)
	pass.Draw(3, 1, 0, 0)
	if err := pass.End(); err != nil {
		enc.DiscardEncoding()
		return err
	}
	return s.submit(enc)
}

func (bp *blitPipeline) release() {
	if bp.sampler != nil {
		bp.sampler.Release()
	}
	if bp.render != nil {
		bp.render.Release()
	}
	if bp.pipeline != nil {
		bp.pipeline.Release()
	}
	if bp.layout != nil {
		bp.layout.Release()
	}
	if bp.shader != nil {
		bp.shader.Release()
	}
}
