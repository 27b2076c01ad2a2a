package filters

import (
	"bytes"
	"image/png"
	"math/rand"
	"os"
	"testing"

	"github.com/soypat/tint"
)

// GenerateRandomSquaresRGBA creates an RGBA image with random colored squares on a black background.
func GenerateRandomSquaresRGBA(rng *rand.Rand, width, height, numSquares, minSize, maxSize int) *tint.Buffer {
	img, err := tint.NewBuffer(width, height, tint.ShapeRGBA8888)
	if err != nil {
		panic(err)
	}

	// Fill with black (alpha=255)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	for i := 0; i < numSquares; i++ {
		size := minSize + rng.Intn(maxSize-minSize+1)
		x := rng.Intn(width)
		y := rng.Intn(height)

		// Random color (avoid very dark so squares are visible)
		r := uint8(64 + rng.Intn(192))
		g := uint8(64 + rng.Intn(192))
		b := uint8(64 + rng.Intn(192))
		a := uint8(128 + rng.Intn(128))

		fillRect(img, x, y, size, size, r, g, b, a)
	}

	return img
}

func fillRect(img *tint.Buffer, x, y, w, h int, r, g, b, a uint8) {
	d := img.Dims()
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			px, py := x+dx, y+dy
			if px >= 0 && px < d.Width && py >= 0 && py < d.Height {
				idx := py*d.Stride + px*4
				img.Pix[idx] = r
				img.Pix[idx+1] = g
				img.Pix[idx+2] = b
				img.Pix[idx+3] = a
			}
		}
	}
}

// randomBuffer returns a buffer of random bytes with rows padded by pad bytes.
func randomBuffer(rng *rand.Rand, width, height, pad int, shape tint.Shape) *tint.Buffer {
	d := tint.Dims{Width: width, Height: height, Shape: shape}
	d.Stride = d.SizeRow() + pad
	pix := make([]byte, d.Size())
	rng.Read(pix)
	buf, err := tint.WrapBuffer(pix, d)
	if err != nil {
		panic(err)
	}
	return buf
}

// readerImage is a tint.Image that is not buffered.
type readerImage struct {
	d    tint.Dims
	data []byte
}

func (r readerImage) Dims() tint.Dims { return r.d }
func (r readerImage) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(r.data).ReadAt(p, off)
}

func saveAsPNG(t *testing.T, img *tint.Buffer, path string) {
	t.Helper()
	std, err := img.ToImage()
	if err != nil {
		t.Logf("failed to convert %s: %v", path, err)
		return
	}
	if err := os.MkdirAll("testdata", 0755); err != nil {
		t.Logf("failed to save %s: %v", path, err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		t.Logf("failed to save %s: %v", path, err)
		return
	}
	defer f.Close()
	if err := png.Encode(f, std); err != nil {
		t.Logf("failed to save %s: %v", path, err)
	}
}

func pixelAt(b *tint.Buffer, x, y int) []byte {
	d := b.Dims()
	bpp := d.Shape.BytesPerPixel()
	off := y*d.Stride + x*bpp
	return b.Pix[off : off+bpp]
}

func singlePixel(t *testing.T, shape tint.Shape, px ...byte) *tint.Buffer {
	t.Helper()
	buf, err := tint.NewBuffer(1, 1, shape)
	if err != nil {
		t.Fatal(err)
	}
	copy(buf.Pix, px)
	return buf
}
