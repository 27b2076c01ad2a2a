package filters

import "github.com/soypat/tint"

// LumaWeights selects the RGB weights used to compute luma.
type LumaWeights int

const (
	// LumaBT601 uses ITU-R BT.601 weights: 0.299*R + 0.587*G + 0.114*B
	LumaBT601 LumaWeights = iota
	// LumaBT709 uses ITU-R BT.709 weights: 0.2126*R + 0.7152*G + 0.0722*B
	LumaBT709
)

func (l LumaWeights) String() string {
	switch l {
	case LumaBT601:
		return "BT601"
	case LumaBT709:
		return "BT709"
	default:
		return "Unknown"
	}
}

// Weights returns the (R, G, B) weights of l. Unknown values return BT.601 weights.
func (l LumaWeights) Weights() [3]float64 {
	if l == LumaBT709 {
		return [3]float64{0.2126, 0.7152, 0.0722}
	}
	return [3]float64{0.299, 0.587, 0.114}
}

// GrayLayout determines the pixel shape written by a grayscale filter.
type GrayLayout int

const (
	// GraySingle writes one luma byte per pixel ([tint.ShapeGray8]).
	GraySingle GrayLayout = iota
	// GrayReplicated keeps the input shape, writing luma to R, G and B and copying alpha.
	GrayReplicated
)

func (g GrayLayout) String() string {
	switch g {
	case GraySingle:
		return "Single"
	case GrayReplicated:
		return "Replicated"
	default:
		return "Unknown"
	}
}

func (g GrayLayout) outShape(in tint.Shape) tint.Shape {
	if g == GrayReplicated {
		return in
	}
	return tint.ShapeGray8
}

// NewGrayscale creates a grayscale filter for images of shape in.
// The filter output shape follows layout and may be changed through the filter's controls.
func NewGrayscale(in tint.Shape, layout GrayLayout, luma LumaWeights) (*PointFilter, error) {
	if _, err := channelsOf(in); err != nil {
		return nil, err
	}
	f := &PointFilter{In: in}
	rebuild := func(layout GrayLayout, luma LumaWeights) error {
		m := ProjectionMatrix(luma.Weights())
		out := layout.outShape(in)
		fn, err := matrixFunc(&m, in, out)
		if err != nil {
			return err
		}
		f.Out, f.Fn = out, fn
		return nil
	}
	if err := rebuild(layout, luma); err != nil {
		return nil, err
	}
	f.Ctrls = []tint.Control{
		&tint.ControlEnum[GrayLayout]{
			Name:        "Layout",
			Description: "Single luma channel or luma replicated in the input's color channels",
			Value:       layout,
			ValidValues: []GrayLayout{GraySingle, GrayReplicated},
			OnChange: func(l GrayLayout) error {
				layout = l // Shared with the luma control's closure.
				return rebuild(layout, luma)
			},
		},
		&tint.ControlEnum[LumaWeights]{
			Name:        "Luma",
			Description: "Weights for RGB to luma conversion",
			Value:       luma,
			ValidValues: []LumaWeights{LumaBT601, LumaBT709},
			OnChange: func(w LumaWeights) error {
				luma = w
				return rebuild(layout, luma)
			},
		},
	}
	return f, nil
}
