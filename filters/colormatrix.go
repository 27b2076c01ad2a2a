package filters

// ColorMatrix is a 3x3 linear transform applied to the (R, G, B) vector of a pixel:
//
//	[R']   [m00 m01 m02]   [R]
//	[G'] = [m10 m11 m12] * [G]
//	[B']   [m20 m21 m22]   [B]
//
// Channel values are in the [0, 255] range during the transform and
// saturated to 8 bits afterwards. Alpha is never an input.
type ColorMatrix [3][3]float64

var (
	// IdentityMatrix leaves colors unchanged.
	IdentityMatrix = ColorMatrix{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}

	// SepiaMatrix is the classic warm-tone photographic transform.
	SepiaMatrix = ColorMatrix{
		{0.393, 0.769, 0.189},
		{0.349, 0.686, 0.168},
		{0.272, 0.534, 0.131},
	}
)

// ProjectionMatrix returns the matrix that maps every channel to the dot
// product of (R, G, B) with weights.
func ProjectionMatrix(weights [3]float64) ColorMatrix {
	return ColorMatrix{weights, weights, weights}
}

// Lerp linearly interpolates each coefficient between m (t=0) and to (t=1).
func (m ColorMatrix) Lerp(to ColorMatrix, t float64) ColorMatrix {
	var out ColorMatrix
	for i := range out {
		for j := range out[i] {
			out[i][j] = m[i][j]*(1-t) + to[i][j]*t
		}
	}
	return out
}

// swapRB returns the matrix acting on (B, G, R) vectors producing (B', G', R').
func (m ColorMatrix) swapRB() ColorMatrix {
	return ColorMatrix{
		{m[2][2], m[2][1], m[2][0]},
		{m[1][2], m[1][1], m[1][0]},
		{m[0][2], m[0][1], m[0][0]},
	}
}

// Transform applies m to an 8-bit color. See [Saturate] for the conversion back to 8 bits.
func (m *ColorMatrix) Transform(r, g, b uint8) (uint8, uint8, uint8) {
	fr, fg, fb := float64(r), float64(g), float64(b)
	return Saturate(m.dot(0, fr, fg, fb)), Saturate(m.dot(1, fr, fg, fb)), Saturate(m.dot(2, fr, fg, fb))
}

func (m *ColorMatrix) dot(row int, r, g, b float64) float64 {
	c := &m[row]
	// Explicit conversions forbid fused multiply-add so all GOARCHes agree.
	return float64(c[0]*r) + float64(c[1]*g) + float64(c[2]*b)
}

// truncGuard absorbs float64 rounding error of decimal coefficients,
// e.g. 0.299*v + 0.587*v + 0.114*v evaluating to v-1e-14.
// It must stay far below the 1e-4 resolution of 4-decimal coefficients.
const truncGuard = 1e-9

// Saturate clamps v to [0, 255] and truncates toward zero. Values less than
// 1e-9 below an integer are treated as that integer. NaN saturates to 0.
func Saturate(v float64) uint8 {
	v += truncGuard
	if !(v > 0) {
		return 0
	} else if v >= 255 {
		return 255
	}
	return uint8(v)
}
