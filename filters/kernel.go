package filters

import (
	"fmt"

	"github.com/soypat/tint"
)

// Transformer applies a color matrix to every pixel of src and returns a newly
// allocated buffer of the same width and height in shape out. out is either
// the source shape or [tint.ShapeGray8], in which case only the first matrix row is used.
// src is only read for the duration of the call.
type Transformer interface {
	Transform(src tint.Image, m ColorMatrix, out tint.Shape) (*tint.Buffer, error)
}

// CPU is a [Transformer] running on the CPU.
type CPU struct {
	// Workers limits concurrently processed row bands. Zero or negative uses GOMAXPROCS.
	Workers int
}

var _ Transformer = CPU{}

// Transform implements [Transformer].
func (c CPU) Transform(src tint.Image, m ColorMatrix, out tint.Shape) (*tint.Buffer, error) {
	if src == nil {
		return nil, tint.ErrNilImage
	}
	d := src.Dims()
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("color transform: %w", err)
	}
	fn, err := matrixFunc(&m, d.Shape, out)
	if err != nil {
		return nil, err
	}
	dst, err := tint.NewBuffer(d.Width, d.Height, out)
	if err != nil {
		return nil, err
	}
	f := PointFilter{In: d.Shape, Out: out, Fn: fn, Workers: c.Workers}
	if _, err = f.Process(dst.Pix, src, nil); err != nil {
		return nil, err
	}
	return dst, nil
}

// Grayscale converts src to luma using t.
func Grayscale(t Transformer, src tint.Image, layout GrayLayout, luma LumaWeights) (*tint.Buffer, error) {
	if src == nil {
		return nil, tint.ErrNilImage
	}
	return t.Transform(src, ProjectionMatrix(luma.Weights()), layout.outShape(src.Dims().Shape))
}

// Sepia applies [SepiaMatrix] to src using t. Alpha is preserved.
func Sepia(t Transformer, src tint.Image) (*tint.Buffer, error) {
	if src == nil {
		return nil, tint.ErrNilImage
	}
	sh := src.Dims().Shape
	if sh == tint.ShapeGray8 {
		return nil, fmt.Errorf("sepia of %v: %w", sh, tint.ErrUnsupportedShape)
	}
	return t.Transform(src, SepiaMatrix, sh)
}

// ApplyGrayscale returns a single channel [tint.ShapeGray8] buffer holding
// the BT.601 luma of src: 0.299*R + 0.587*G + 0.114*B, clamped and truncated.
// An empty src yields an empty buffer of the same dimensions.
func ApplyGrayscale(src tint.Image) (*tint.Buffer, error) {
	return Grayscale(CPU{}, src, GraySingle, LumaBT601)
}

// ApplySepia returns src in sepia tone with the same shape and alpha.
func ApplySepia(src tint.Image) (*tint.Buffer, error) {
	return Sepia(CPU{}, src)
}

// ApplyMatrix returns src transformed by m with the same shape and alpha.
func ApplyMatrix(src tint.Image, m ColorMatrix) (*tint.Buffer, error) {
	if src == nil {
		return nil, tint.ErrNilImage
	}
	return CPU{}.Transform(src, m, src.Dims().Shape)
}
