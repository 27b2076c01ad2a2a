package filters

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/soypat/tint"
)

//go:embed point-filter-gpu.wgsl
var baseShaderWGSL string

// PointFilterGPU applies a per-pixel GPU compute shader transformation to
// 32-bit pixel images. The transform function is WGSL code passed to [PointFilterGPU.Init].
type PointFilterGPU struct {
	mu     sync.Mutex
	gpu    gpuResources
	params gpuParams
	inited bool
}

// gpuParams mirrors the WGSL Uniforms struct.
// [0]=width, [1]=height, [2]=truncation guard, [3]=padding, [4..15]=matrix rows padded to vec4.
type gpuParams [16]float32

// gpuTruncGuard is the shader's counterpart of truncGuard. f32 dot products
// near 255 carry errors up to about 5e-5, so exact truncation is only
// reproduced for coefficients with at most three decimals.
const gpuTruncGuard = 1.0 / 4096

type gpuResources struct {
	device        *wgpu.Device
	queue         *wgpu.Queue
	shaderModule  *wgpu.ShaderModule
	pipeline      *wgpu.ComputePipeline
	bindLayout    *wgpu.BindGroupLayout
	uniformBuffer *wgpu.Buffer
	inputBuffer   *wgpu.Buffer
	outputBuffer  *wgpu.Buffer
	stagingBuffer *wgpu.Buffer
	width, height int
}

// Init initializes GPU resources with the given transform WGSL code.
// transformCode should define: fn transform(c: vec4<f32>) -> vec4<f32>
// where c holds the four pixel bytes in memory order as 0..255 values.
func (f *PointFilterGPU) Init(device *wgpu.Device, queue *wgpu.Queue, transformCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fullShader := strings.Replace(baseShaderWGSL, "// TRANSFORM_PLACEHOLDER", transformCode, 1)

	f.gpu.device = device
	f.gpu.queue = queue

	var err error
	f.gpu.shaderModule, err = device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fullShader},
	})
	if err != nil {
		return fmt.Errorf("shader module: %w", err)
	}

	f.gpu.pipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     f.gpu.shaderModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("compute pipeline: %w", err)
	}

	f.gpu.bindLayout = f.gpu.pipeline.GetBindGroupLayout(0)

	f.gpu.uniformBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  uint64(len(f.params) * 4),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("uniform buffer: %w", err)
	}

	f.params[2] = gpuTruncGuard
	f.inited = true
	return nil
}

// Process applies the GPU filter to src, which must be a 32 bits per pixel image,
// and returns a new buffer of the same dims and shape.
func (f *PointFilterGPU) Process(src tint.Image) (*tint.Buffer, error) {
	if src == nil {
		return nil, tint.ErrNilImage
	}
	d := src.Dims()
	if err := d.Validate(); err != nil {
		return nil, err
	} else if d.Shape.BitsPerPixel() != 32 {
		return nil, fmt.Errorf("gpu point filter of %v: %w", d.Shape, tint.ErrUnsupportedShape)
	}
	out, err := tint.NewBuffer(d.Width, d.Height, d.Shape)
	if err != nil {
		return nil, err
	}
	if d.Empty() {
		return out, nil
	}
	pix, err := packedPixels(src, d)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.inited {
		return nil, fmt.Errorf("filter not initialized")
	}

	w, h := d.Width, d.Height
	if err := f.ensureBuffers(w, h); err != nil {
		return nil, err
	}

	f.gpu.queue.WriteBuffer(f.gpu.inputBuffer, 0, pix)

	f.params[0], f.params[1] = float32(w), float32(h)
	f.gpu.queue.WriteBuffer(f.gpu.uniformBuffer, 0, wgpu.ToBytes(f.params[:]))

	if err := f.run(out.Pix); err != nil {
		return nil, err
	}
	return out, nil
}

// packedPixels returns the pixels of src without row padding.
func packedPixels(src tint.Image, d tint.Dims) ([]byte, error) {
	rowLen := d.SizeRow()
	if buffered, ok := src.(tint.ImageBuffered); ok {
		if buf := buffered.Buffer(); d.Stride == rowLen && int64(len(buf)) >= d.Size() {
			return buf[:d.Size()], nil
		}
	}
	pix := make([]byte, rowLen*d.Height)
	for y := 0; y < d.Height; y++ {
		dst := pix[y*rowLen : (y+1)*rowLen]
		row, err := tint.ImageRow(dst, src, y)
		if err != nil {
			return nil, err
		}
		copy(dst, row)
	}
	return pix, nil
}

func (f *PointFilterGPU) ensureBuffers(w, h int) error {
	if w == f.gpu.width && h == f.gpu.height {
		return nil
	}

	f.releaseImageBuffers()

	size := uint64(w * h * 4)
	tint.Logger().Debug("gpu buffers", "width", w, "height", h, "bytes", size)
	var err error

	f.gpu.inputBuffer, err = f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("input buffer: %w", err)
	}

	f.gpu.outputBuffer, err = f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		f.releaseImageBuffers()
		return fmt.Errorf("output buffer: %w", err)
	}

	f.gpu.stagingBuffer, err = f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		f.releaseImageBuffers()
		return fmt.Errorf("staging buffer: %w", err)
	}

	f.gpu.width, f.gpu.height = w, h
	return nil
}

// run encodes the compute pass and the copy into the staging buffer as one
// submission, then maps the staging buffer into dst.
func (f *PointFilterGPU) run(dst []byte) error {
	w, h := f.gpu.width, f.gpu.height
	size := uint64(len(dst))
	bindGroup, err := f.gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: f.gpu.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: f.gpu.uniformBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: f.gpu.inputBuffer, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: f.gpu.outputBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("color transform bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := f.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("color transform encoder: %w", err)
	}
	defer encoder.Release()

	groupsX, groupsY := uint32((w+7)/8), uint32((h+7)/8)
	tint.Logger().Debug("gpu dispatch", "width", w, "height", h, "groupsX", groupsX, "groupsY", groupsY)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(f.gpu.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(groupsX, groupsY, 1)
	pass.End()
	pass.Release()
	encoder.CopyBufferToBuffer(f.gpu.outputBuffer, 0, f.gpu.stagingBuffer, 0, size)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("color transform commands: %w", err)
	}
	defer cmd.Release()
	f.gpu.queue.Submit(cmd)

	mapped := make(chan wgpu.BufferMapAsyncStatus, 1)
	f.gpu.stagingBuffer.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		mapped <- status
	})
	f.gpu.device.Poll(true, nil)
	if status := <-mapped; status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("mapping %d byte result: %v", size, status)
	}
	copy(dst, f.gpu.stagingBuffer.GetMappedRange(0, uint(size)))
	f.gpu.stagingBuffer.Unmap()
	return nil
}

func (f *PointFilterGPU) releaseImageBuffers() {
	if f.gpu.inputBuffer != nil {
		f.gpu.inputBuffer.Release()
		f.gpu.inputBuffer = nil
	}
	if f.gpu.outputBuffer != nil {
		f.gpu.outputBuffer.Release()
		f.gpu.outputBuffer = nil
	}
	if f.gpu.stagingBuffer != nil {
		f.gpu.stagingBuffer.Release()
		f.gpu.stagingBuffer = nil
	}
	f.gpu.width, f.gpu.height = 0, 0
}

// Cleanup releases all GPU resources. The device and queue are not released.
func (f *PointFilterGPU) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseImageBuffers()
	if f.gpu.uniformBuffer != nil {
		f.gpu.uniformBuffer.Release()
		f.gpu.uniformBuffer = nil
	}
	if f.gpu.bindLayout != nil {
		f.gpu.bindLayout.Release()
		f.gpu.bindLayout = nil
	}
	if f.gpu.pipeline != nil {
		f.gpu.pipeline.Release()
		f.gpu.pipeline = nil
	}
	if f.gpu.shaderModule != nil {
		f.gpu.shaderModule.Release()
		f.gpu.shaderModule = nil
	}
	f.inited = false
}

// SetMatrix loads m into the uniform matrix rows m0..m2.
func (f *PointFilterGPU) SetMatrix(m ColorMatrix) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range m {
		for j, v := range row {
			f.params[4+4*i+j] = float32(v)
		}
		f.params[4+4*i+3] = 0
	}
}
