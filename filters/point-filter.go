package filters

import (
	"errors"
	"fmt"
	"image"
	"io"
	"runtime"

	"github.com/soypat/tint"
	"golang.org/x/sync/errgroup"
)

var errShapeMismatch = errors.New("pixel shape mismatch")

// PointFunc processes a contiguous row of pixels.
// dst and src contain rowWidth pixels worth of bytes.
// The function should iterate through pixels: for i := 0; i < len(src); i += bytesPerPixel { ... }
// For in-place processing dst and src are the same slice.
type PointFunc func(dst, src []byte)

// PointFilter applies a per-pixel transformation using a callback function.
// It handles the iteration, buffering, and ROI logic common to all per-pixel filters.
// The callback is invoked once per row with contiguous pixel data.
//
// Rows are split into disjoint bands processed concurrently by up to Workers
// goroutines, so Fn must not keep state between calls.
type PointFilter struct {
	In    tint.Shape
	Out   tint.Shape
	Fn    PointFunc
	Ctrls []tint.Control // User-defined controls for this filter.
	// Workers limits concurrent bands. Zero or negative uses GOMAXPROCS.
	Workers int
}

// minBandPixels keeps bands large enough that goroutine overhead does not dominate.
const minBandPixels = 16 * 1024

// ShapeIO implements [tint.Filter].
func (f *PointFilter) ShapeIO() (output, input tint.Shape) {
	return f.Out, f.In
}

// Controls implements [tint.Filter].
func (f *PointFilter) Controls() []tint.Control {
	return f.Ctrls
}

// Process implements [tint.Filter]. On error the contents of dst are unspecified.
func (f *PointFilter) Process(dst []byte, src tint.Image, roi *image.Rectangle) (tint.Dims, error) {
	if f.Fn == nil {
		return tint.Dims{}, errNilPixelFunc
	} else if src == nil {
		return tint.Dims{}, tint.ErrNilImage
	}

	outShape, inShape := f.ShapeIO()
	srcDims := src.Dims()
	if srcDims.Shape != inShape {
		return tint.Dims{}, fmt.Errorf("%w: got %v, filter takes %v", errShapeMismatch, srcDims.Shape, inShape)
	}

	inBytesPerPixel := inShape.BytesPerPixel()
	outBytesPerPixel := outShape.BytesPerPixel()
	if inBytesPerPixel == 0 || outBytesPerPixel == 0 {
		return tint.Dims{}, tint.ErrUnsupportedShape
	}

	// Calculate output dimensions based on ROI or full image.
	var outWidth, outHeight int
	if roi != nil {
		outWidth, outHeight = roi.Dx(), roi.Dy()
	} else {
		outWidth, outHeight = srcDims.Width, srcDims.Height
	}
	outStride := outWidth * outBytesPerPixel
	if dst == nil {
		// In-place keeps the source row spacing.
		outStride = srcDims.Stride
	}

	dstDims := tint.Dims{
		Width:  outWidth,
		Height: outHeight,
		Stride: outStride,
		Shape:  outShape,
	}

	dst, _, err := tint.ValidateProcessArgs(dst, dstDims, src, roi)
	if err != nil {
		return tint.Dims{}, err
	}
	if dstDims.Empty() {
		return dstDims, nil
	}

	// Determine source region to process.
	startX, startY := 0, 0
	endX, endY := srcDims.Width, srcDims.Height
	if roi != nil {
		startX, startY = roi.Min.X, roi.Min.Y
		endX, endY = roi.Max.X, roi.Max.Y
	}

	// Try to get direct buffer access for better performance.
	var srcBuf []byte
	if buffered, ok := src.(tint.ImageBuffered); ok {
		srcBuf = buffered.Buffer()
		if int64(len(srcBuf)) < srcDims.Size() {
			srcBuf = nil
		}
	}

	srcRowBytes := srcDims.SizeRow()
	srcStart := startX * inBytesPerPixel
	srcEnd := endX * inBytesPerPixel
	outRowBytes := outWidth * outBytesPerPixel

	band := func(y0, y1 int) error {
		var rowBuf []byte // Fallback buffer for ReadAt.
		for y := y0; y < y1; y++ {
			var srcRow []byte
			srcRowStart := y * srcDims.Stride
			if srcBuf != nil {
				srcRow = srcBuf[srcRowStart : srcRowStart+srcRowBytes]
			} else {
				if rowBuf == nil {
					rowBuf = make([]byte, srcRowBytes)
				}
				n, err := src.ReadAt(rowBuf, int64(srcRowStart))
				if n < srcRowBytes {
					if err == nil || err == io.EOF {
						err = io.ErrUnexpectedEOF
					}
					return fmt.Errorf("reading row %d: %w", y, err)
				}
				srcRow = rowBuf
			}
			dstRowStart := (y - startY) * outStride
			f.Fn(dst[dstRowStart:dstRowStart+outRowBytes], srcRow[srcStart:srcEnd])
		}
		return nil
	}

	workers := f.bands(outWidth, outHeight)
	if workers == 1 {
		err = band(startY, endY)
	} else {
		rowsPerBand := (outHeight + workers - 1) / workers
		tint.Logger().Debug("point filter bands", "width", outWidth, "height", outHeight, "bands", workers, "rows", rowsPerBand)
		var g errgroup.Group
		for y0 := startY; y0 < endY; y0 += rowsPerBand {
			y1 := min(y0+rowsPerBand, endY)
			g.Go(func() error { return band(y0, y1) })
		}
		err = g.Wait()
	}
	if err != nil {
		return tint.Dims{}, err
	}
	return dstDims, nil
}

// bands returns how many row bands to split a width x height output into.
func (f *PointFilter) bands(width, height int) int {
	workers := f.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	byWork := width * height / minBandPixels
	return max(1, min(workers, height, byWork))
}

var errNilPixelFunc = errorString("nil PixelFunc")

type errorString string

func (e errorString) Error() string { return string(e) }
