package filters

import (
	"bytes"
	"errors"
	"image"
	"math/rand"
	"testing"

	"github.com/soypat/tint"
)

func TestPointFilterROI(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	src := randomBuffer(rng, 20, 10, 4, tint.ShapeRGBA8888)
	f, err := NewSepia(tint.ShapeRGBA8888)
	if err != nil {
		t.Fatal(err)
	}
	full, err := ApplySepia(src)
	if err != nil {
		t.Fatal(err)
	}

	roi := image.Rect(3, 2, 11, 9)
	dst := make([]byte, roi.Dx()*roi.Dy()*4)
	dims, err := f.Process(dst, src, &roi)
	if err != nil {
		t.Fatal(err)
	}
	if dims.Width != roi.Dx() || dims.Height != roi.Dy() || dims.Shape != tint.ShapeRGBA8888 {
		t.Fatalf("unexpected dims %+v", dims)
	}
	out, err := tint.WrapBuffer(dst, dims)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < roi.Dy(); y++ {
		for x := 0; x < roi.Dx(); x++ {
			got, want := pixelAt(out, x, y), pixelAt(full, x+roi.Min.X, y+roi.Min.Y)
			if !bytes.Equal(got, want) {
				t.Fatalf("roi pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestPointFilterInPlace(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	src := randomBuffer(rng, 33, 17, 7, tint.ShapeBGRA8888)
	want, err := ApplySepia(src)
	if err != nil {
		t.Fatal(err)
	}
	f, err := NewSepia(tint.ShapeBGRA8888)
	if err != nil {
		t.Fatal(err)
	}
	dims, err := f.Process(nil, src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if dims.Stride != src.Dims().Stride {
		t.Errorf("in-place stride %d, want %d", dims.Stride, src.Dims().Stride)
	}
	for y := 0; y < 17; y++ {
		if !bytes.Equal(src.Row(y), want.Row(y)) {
			t.Fatalf("row %d differs after in-place sepia", y)
		}
	}

	roi := image.Rect(0, 0, 2, 2)
	if _, err := f.Process(nil, src, &roi); err == nil {
		t.Error("expected in-place ROI to fail")
	}
}

func TestPointFilterErrors(t *testing.T) {
	src := singlePixel(t, tint.ShapeRGBA8888, 1, 2, 3, 4)
	var f PointFilter
	if _, err := f.Process(make([]byte, 4), src, nil); !errors.Is(err, errNilPixelFunc) {
		t.Errorf("nil Fn: got %v", err)
	}

	gray, err := NewGrayscale(tint.ShapeRGB888, GraySingle, LumaBT601)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gray.Process(make([]byte, 4), src, nil); !errors.Is(err, errShapeMismatch) {
		t.Errorf("shape mismatch: got %v", err)
	}

	sepia, err := NewSepia(tint.ShapeRGBA8888)
	if err != nil {
		t.Fatal(err)
	}
	big := randomBuffer(rand.New(rand.NewSource(12)), 4, 4, 0, tint.ShapeRGBA8888)
	if _, err := sepia.Process(make([]byte, 10), big, nil); err == nil {
		t.Error("expected small dst to fail")
	}
	for _, roi := range []image.Rectangle{
		image.Rect(-1, 0, 2, 2),
		image.Rect(0, 0, 5, 2),
		image.Rect(1, 1, 1, 3),
	} {
		if _, err := sepia.Process(make([]byte, 64), big, &roi); err == nil {
			t.Errorf("expected roi %v to fail", roi)
		}
	}
}

func TestGrayscaleControls(t *testing.T) {
	src := singlePixel(t, tint.ShapeRGBA8888, 255, 0, 0, 200)
	f, err := NewGrayscale(tint.ShapeRGBA8888, GraySingle, LumaBT601)
	if err != nil {
		t.Fatal(err)
	}
	if out, _ := f.ShapeIO(); out != tint.ShapeGray8 {
		t.Fatalf("single layout output %v", out)
	}
	dst := make([]byte, 4)
	if _, err := f.Process(dst, src, nil); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 76 {
		t.Errorf("BT601 red luma %d, want 76", dst[0])
	}

	layout, ok := tint.FindControl(f.Controls(), "layout")
	if !ok {
		t.Fatal("layout control not found")
	}
	if err := layout.ChangeValue(GrayReplicated); err != nil {
		t.Fatal(err)
	}
	luma, ok := tint.FindControl(f.Controls(), "Luma")
	if !ok {
		t.Fatal("luma control not found")
	}
	if err := luma.ChangeValue("bt709"); err != nil {
		t.Fatal(err)
	}
	if luma.ActualValue() != LumaBT709 {
		t.Errorf("luma value %v", luma.ActualValue())
	}
	if out, _ := f.ShapeIO(); out != tint.ShapeRGBA8888 {
		t.Fatalf("replicated layout output %v", out)
	}
	if _, err := f.Process(dst, src, nil); err != nil {
		t.Fatal(err)
	}
	// 0.2126*255 = 54.213
	if want := []byte{54, 54, 54, 200}; !bytes.Equal(dst, want) {
		t.Errorf("BT709 replicated got %v, want %v", dst, want)
	}
	if err := luma.ChangeValue(LumaWeights(7)); err == nil {
		t.Error("expected invalid luma to fail")
	}
}

func TestSepiaIntensityControl(t *testing.T) {
	src := singlePixel(t, tint.ShapeRGBA8888, 100, 150, 200, 255)
	f, err := NewSepia(tint.ShapeRGBA8888)
	if err != nil {
		t.Fatal(err)
	}
	intensity, ok := tint.FindControl(f.Controls(), "Intensity")
	if !ok {
		t.Fatal("intensity control not found")
	}
	tests := []struct {
		t    float64
		want []byte
	}{
		{t: 1, want: []byte{192, 171, 133, 255}},
		{t: 0, want: []byte{100, 150, 200, 255}},
		{t: 0.5, want: []byte{146, 160, 166, 255}},
	}
	for _, tt := range tests {
		if err := intensity.ChangeValue(tt.t); err != nil {
			t.Fatal(err)
		}
		dst := make([]byte, 4)
		if _, err := f.Process(dst, src, nil); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(dst, tt.want) {
			t.Errorf("intensity %v: got %v, want %v", tt.t, dst, tt.want)
		}
	}
	for _, bad := range []any{1.5, -0.1, "full", float32(1)} {
		if err := intensity.ChangeValue(bad); err == nil {
			t.Errorf("intensity %v: expected error", bad)
		}
	}
	if intensity.ActualValue() != 0.5 {
		t.Errorf("failed changes modified value to %v", intensity.ActualValue())
	}
}
