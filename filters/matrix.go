package filters

import (
	"fmt"

	"github.com/soypat/tint"
)

// channels holds byte offsets of color channels within a pixel. a is -1 when absent.
type channels struct {
	r, g, b, a int
	size       int
}

func channelsOf(sh tint.Shape) (channels, error) {
	switch sh {
	case tint.ShapeRGBA8888:
		return channels{r: 0, g: 1, b: 2, a: 3, size: 4}, nil
	case tint.ShapeBGRA8888:
		return channels{r: 2, g: 1, b: 0, a: 3, size: 4}, nil
	case tint.ShapeRGB888:
		return channels{r: 0, g: 1, b: 2, a: -1, size: 3}, nil
	case tint.ShapeGray8:
		return channels{r: 0, g: 0, b: 0, a: -1, size: 1}, nil
	}
	return channels{}, fmt.Errorf("color transform of %v: %w", sh, tint.ErrUnsupportedShape)
}

// matrixFunc returns a PointFunc applying m to rows of shape in and writing shape out.
// A Gray8 output stores the first matrix row only.
func matrixFunc(m *ColorMatrix, in, out tint.Shape) (PointFunc, error) {
	ic, err := channelsOf(in)
	if err != nil {
		return nil, err
	}
	oc, err := channelsOf(out)
	if err != nil {
		return nil, err
	}
	if out == tint.ShapeGray8 {
		return func(dst, src []byte) {
			for i, j := 0, 0; i < len(src); i, j = i+ic.size, j+1 {
				r, g, b := float64(src[i+ic.r]), float64(src[i+ic.g]), float64(src[i+ic.b])
				dst[j] = Saturate(m.dot(0, r, g, b))
			}
		}, nil
	} else if in != out {
		return nil, fmt.Errorf("%w: %v to %v", errShapeMismatch, in, out)
	}
	return func(dst, src []byte) {
		for i := 0; i < len(src); i += ic.size {
			r, g, b := m.Transform(src[i+ic.r], src[i+ic.g], src[i+ic.b])
			dst[i+oc.r], dst[i+oc.g], dst[i+oc.b] = r, g, b
			if oc.a >= 0 {
				dst[i+oc.a] = src[i+ic.a]
			}
		}
	}, nil
}

// NewColorMatrix creates a filter applying m to images of the given shape.
// Alpha, when present, is copied unchanged.
func NewColorMatrix(shape tint.Shape, m ColorMatrix) (*PointFilter, error) {
	fn, err := matrixFunc(&m, shape, shape)
	if err != nil {
		return nil, err
	}
	return &PointFilter{In: shape, Out: shape, Fn: fn}, nil
}
