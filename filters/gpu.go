package filters

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/soypat/tint"
)

const matrixTransform = `
fn transform(c: vec4<f32>) -> vec4<f32> {
    let v = c.xyz;
    return vec4<f32>(dot(u.m0.xyz, v), dot(u.m1.xyz, v), dot(u.m2.xyz, v), c.w);
}
`

// GPU is a [Transformer] running a WebGPU compute shader. It accepts
// [tint.ShapeRGBA8888] and [tint.ShapeBGRA8888] sources. Calls are serialized.
type GPU struct {
	mu      sync.Mutex
	filter  PointFilterGPU
	release func()
}

var _ Transformer = (*GPU)(nil)

// NewGPU compiles the color matrix shader on device. The caller keeps ownership of device and queue.
func NewGPU(device *wgpu.Device, queue *wgpu.Queue) (*GPU, error) {
	g := &GPU{}
	if err := g.filter.Init(device, queue, matrixTransform); err != nil {
		return nil, err
	}
	return g, nil
}

// OpenGPU acquires a WebGPU adapter and device and returns a GPU owning them.
// Call [GPU.Release] when done.
func OpenGPU() (*GPU, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, errors.New("webgpu not available")
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	g, err := NewGPU(device, device.GetQueue())
	if err != nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, err
	}
	g.release = func() {
		device.Release()
		adapter.Release()
		instance.Release()
	}
	tint.Logger().Info("gpu device acquired")
	return g, nil
}

// Transform implements [Transformer].
func (g *GPU) Transform(src tint.Image, m ColorMatrix, out tint.Shape) (*tint.Buffer, error) {
	if src == nil {
		return nil, tint.ErrNilImage
	}
	in := src.Dims().Shape
	switch in {
	case tint.ShapeRGBA8888:
	case tint.ShapeBGRA8888:
		m = m.swapRB()
	default:
		return nil, fmt.Errorf("gpu color transform of %v: %w", in, tint.ErrUnsupportedShape)
	}
	if out != in && out != tint.ShapeGray8 {
		return nil, fmt.Errorf("%w: %v to %v", errShapeMismatch, in, out)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.filter.SetMatrix(m)
	res, err := g.filter.Process(src)
	if err != nil || out == in {
		return res, err
	}
	// Gray output keeps the first matrix row, the R channel.
	ch, _ := channelsOf(in)
	d := res.Dims()
	gray, err := tint.NewBuffer(d.Width, d.Height, tint.ShapeGray8)
	if err != nil {
		return nil, err
	}
	for i := range gray.Pix {
		gray.Pix[i] = res.Pix[4*i+ch.r]
	}
	return gray, nil
}

// Release frees shader resources and, for a GPU from [OpenGPU], the device.
func (g *GPU) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filter.Cleanup()
	if g.release != nil {
		g.release()
		g.release = nil
		tint.Logger().Info("gpu device released")
	}
}
