package tint

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b, err := NewBuffer(5, 3, ShapeRGB888)
	if err != nil {
		t.Fatal(err)
	}
	d := b.Dims()
	if d.Stride != 15 || len(b.Pix) != 45 {
		t.Errorf("stride %d len %d, want 15 and 45", d.Stride, len(b.Pix))
	}
	if _, err := NewBuffer(8, 1, ShapeMonochrome); !errors.Is(err, ErrUnsupportedShape) {
		t.Errorf("monochrome: got %v", err)
	}
	if _, err := NewBuffer(-1, 1, ShapeGray8); err == nil {
		t.Error("expected negative width to fail")
	}
}

func TestWrapBufferSizeMismatch(t *testing.T) {
	d := Dims{Width: 2, Height: 2, Stride: 8, Shape: ShapeRGBA8888}
	if _, err := WrapBuffer(make([]byte, 15), d); err == nil {
		t.Error("expected undersized buffer to fail")
	}
	if _, err := WrapBuffer(make([]byte, 16), d); err != nil {
		t.Error(err)
	}
}

func TestBufferReadAt(t *testing.T) {
	b, _ := WrapBuffer([]byte{1, 2, 3, 4}, Dims{Width: 4, Height: 1, Stride: 4, Shape: ShapeGray8})
	p := make([]byte, 3)
	n, err := b.ReadAt(p, 2)
	if n != 2 || err != io.EOF || !bytes.Equal(p[:n], []byte{3, 4}) {
		t.Errorf("ReadAt tail = %d, %v, %v", n, err, p[:n])
	}
	if n, err := b.ReadAt(p, 4); n != 0 || err != io.EOF {
		t.Errorf("ReadAt past end = %d, %v", n, err)
	}
	if _, err := b.ReadAt(p, -1); err == nil {
		t.Error("expected negative offset to fail")
	}
}

func TestNilBuffer(t *testing.T) {
	var b *Buffer
	if b.Dims() != (Dims{}) || b.Buffer() != nil {
		t.Error("nil buffer not zero")
	}
}

func TestFromImageRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(2, 3, 5, 5))
	src.SetNRGBA(2, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	src.SetNRGBA(4, 4, color.NRGBA{R: 250, G: 1, B: 2, A: 255})
	b, err := FromImage(src)
	if err != nil {
		t.Fatal(err)
	}
	d := b.Dims()
	if d.Width != 3 || d.Height != 2 || d.Shape != ShapeRGBA8888 {
		t.Fatalf("dims %+v", d)
	}
	if got := b.Row(0)[:4]; !bytes.Equal(got, []byte{10, 20, 30, 40}) {
		t.Errorf("first pixel %v", got)
	}
	img, err := b.ToImage()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.At(2, 1); got != (color.NRGBA{R: 250, G: 1, B: 2, A: 255}) {
		t.Errorf("last pixel %v", got)
	}
}

func TestFromImageConverts(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.Pix[1] = 77
	b, err := FromImage(gray)
	if err != nil {
		t.Fatal(err)
	}
	if b.Dims().Shape != ShapeGray8 || b.Pix[1] != 77 {
		t.Errorf("gray: %+v %v", b.Dims(), b.Pix)
	}

	// Premultiplied source is converted to straight alpha.
	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgba.SetRGBA(0, 0, color.RGBA{R: 50, G: 0, B: 100, A: 128})
	b, err = FromImage(rgba)
	if err != nil {
		t.Fatal(err)
	}
	want := color.NRGBAModel.Convert(color.RGBA{R: 50, G: 0, B: 100, A: 128}).(color.NRGBA)
	if !bytes.Equal(b.Pix, []byte{want.R, want.G, want.B, want.A}) {
		t.Errorf("rgba: got %v, want %v", b.Pix, want)
	}

	if _, err := FromImage(nil); !errors.Is(err, ErrNilImage) {
		t.Errorf("nil: got %v", err)
	}
}

func TestToImageLayouts(t *testing.T) {
	bgra, _ := WrapBuffer([]byte{3, 2, 1, 9}, Dims{Width: 1, Height: 1, Stride: 4, Shape: ShapeBGRA8888})
	img, err := bgra.ToImage()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.At(0, 0); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 9}) {
		t.Errorf("bgra pixel %v", got)
	}
	rgb, _ := WrapBuffer([]byte{1, 2, 3}, Dims{Width: 1, Height: 1, Stride: 3, Shape: ShapeRGB888})
	img, err = rgb.ToImage()
	if err != nil {
		t.Fatal(err)
	}
	if got := img.At(0, 0); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("rgb pixel %v", got)
	}
	mono, _ := WrapBuffer([]byte{0xff}, Dims{Width: 8, Height: 1, Stride: 1, Shape: ShapeMonochrome})
	if _, err := mono.ToImage(); !errors.Is(err, ErrUnsupportedShape) {
		t.Errorf("mono: got %v", err)
	}
}
