package filters

import (
	"fmt"

	"github.com/soypat/tint"
)

// NewSepia creates a sepia tone filter for images of shape in. Alpha is preserved.
// Its Intensity control blends between the original colors (0) and full sepia (1).
func NewSepia(in tint.Shape) (*PointFilter, error) {
	if in == tint.ShapeGray8 {
		return nil, fmt.Errorf("sepia of %v: %w", in, tint.ErrUnsupportedShape)
	}
	f, err := NewColorMatrix(in, SepiaMatrix)
	if err != nil {
		return nil, err
	}
	f.Ctrls = []tint.Control{
		&tint.ControlOrdered[float64]{
			Name:        "Intensity",
			Description: "Blend between original colors (0) and full sepia (1)",
			Value:       1,
			Min:         0,
			Max:         1,
			Step:        0.05,
			OnChange: func(t float64) error {
				m := SepiaIntensity(t)
				fn, err := matrixFunc(&m, in, in)
				if err == nil {
					f.Fn = fn
				}
				return err
			},
		},
	}
	return f, nil
}

// SepiaIntensity returns the matrix blending identity (t=0) with [SepiaMatrix] (t=1).
func SepiaIntensity(t float64) ColorMatrix {
	return IdentityMatrix.Lerp(SepiaMatrix, t)
}
