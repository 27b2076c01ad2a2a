package tint

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	xdraw "golang.org/x/image/draw"
)

var (
	// ErrNilImage is returned when an operation receives no image.
	ErrNilImage = errors.New("nil image")
	// ErrUnsupportedShape is returned when a pixel shape cannot be handled by an operation.
	ErrUnsupportedShape = errors.New("unsupported pixel shape")
)

var _ ImageBuffered = (*Buffer)(nil)

// Buffer is a dense, row-major pixel buffer held in memory.
// The zero value is an empty image with undefined shape.
type Buffer struct {
	dims Dims
	Pix  []byte
}

// NewBuffer allocates a tightly packed buffer. Shape must be byte aligned.
func NewBuffer(width, height int, shape Shape) (*Buffer, error) {
	bpp := shape.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("new buffer %v: %w", shape, ErrUnsupportedShape)
	}
	d := Dims{Width: width, Height: height, Stride: width * bpp, Shape: shape}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Buffer{dims: d, Pix: make([]byte, d.Size())}, nil
}

// WrapBuffer returns a Buffer backed by pix without copying.
// It fails if pix is too small for the declared dimensions.
func WrapBuffer(pix []byte, d Dims) (*Buffer, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if int64(len(pix)) < d.Size() {
		return nil, fmt.Errorf("buffer of %d bytes too small for %dx%d %v image of %d bytes", len(pix), d.Width, d.Height, d.Shape, d.Size())
	}
	return &Buffer{dims: d, Pix: pix}, nil
}

// Dims implements [Image].
func (b *Buffer) Dims() Dims {
	if b == nil {
		return Dims{}
	}
	return b.dims
}

// Buffer implements [ImageBuffered].
func (b *Buffer) Buffer() []byte {
	if b == nil {
		return nil
	}
	return b.Pix
}

// ReadAt implements [io.ReaderAt].
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	} else if off >= int64(len(b.Pix)) {
		return 0, io.EOF
	}
	n := copy(p, b.Pix[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Row returns the bytes of row y without padding.
func (b *Buffer) Row(y int) []byte {
	off := y * b.dims.Stride
	return b.Pix[off : off+b.dims.SizeRow()]
}

// FromImage copies img into a new Buffer. Gray images become [ShapeGray8],
// everything else non-premultiplied [ShapeRGBA8888].
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	switch src := img.(type) {
	case *image.Gray:
		buf, err := NewBuffer(w, h, ShapeGray8)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			off := src.PixOffset(r.Min.X, r.Min.Y+y)
			copy(buf.Row(y), src.Pix[off:off+w])
		}
		return buf, nil
	case *image.NRGBA:
		buf, err := NewBuffer(w, h, ShapeRGBA8888)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			off := src.PixOffset(r.Min.X, r.Min.Y+y)
			copy(buf.Row(y), src.Pix[off:off+4*w])
		}
		return buf, nil
	}
	buf, err := NewBuffer(w, h, ShapeRGBA8888)
	if err != nil {
		return nil, err
	}
	dst := &image.NRGBA{Pix: buf.Pix, Stride: buf.dims.Stride, Rect: image.Rect(0, 0, w, h)}
	xdraw.Draw(dst, dst.Rect, img, r.Min, xdraw.Src)
	return buf, nil
}

// ToImage returns an [image.Image] view of b. RGBA8888 and Gray8 buffers
// share memory with b; other shapes are converted into a new [image.NRGBA].
func (b *Buffer) ToImage() (image.Image, error) {
	d := b.Dims()
	rect := image.Rect(0, 0, d.Width, d.Height)
	switch d.Shape {
	case ShapeRGBA8888:
		return &image.NRGBA{Pix: b.Pix, Stride: d.Stride, Rect: rect}, nil
	case ShapeGray8:
		return &image.Gray{Pix: b.Pix, Stride: d.Stride, Rect: rect}, nil
	case ShapeBGRA8888, ShapeRGB888:
		img := image.NewNRGBA(rect)
		bpp := d.Shape.BytesPerPixel()
		for y := 0; y < d.Height; y++ {
			row := b.Row(y)
			for x := 0; x < d.Width; x++ {
				p := row[x*bpp:]
				c := color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255}
				if d.Shape == ShapeBGRA8888 {
					c.R, c.B, c.A = p[2], p[0], p[3]
				}
				img.SetNRGBA(x, y, c)
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("to image %v: %w", d.Shape, ErrUnsupportedShape)
}
