// Command tint applies a grayscale or sepia color transform to an image file.
//
// Usage:
//
//	tint -in photo.jpg -out photo-sepia.png -filter sepia
//	tint -in scan.bmp -out scan-gray.png -filter gray -layout replicated -gpu
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/soypat/tint"
	"github.com/soypat/tint/filters"
)

type config struct {
	in, out   string
	filter    string
	layout    string
	luma      string
	intensity float64
	workers   int
	gpu       bool
	maxDim    int
	verbose   bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.in, "in", "", "input image (png, jpeg, gif, bmp, webp)")
	flag.StringVar(&cfg.out, "out", "", "output PNG file")
	flag.StringVar(&cfg.filter, "filter", "sepia", "filter to apply: gray or sepia")
	flag.StringVar(&cfg.layout, "layout", "single", "grayscale output: single or replicated")
	flag.StringVar(&cfg.luma, "luma", "bt601", "grayscale weights: bt601 or bt709")
	flag.Float64Var(&cfg.intensity, "intensity", 1, "sepia intensity in [0,1]")
	flag.IntVar(&cfg.workers, "workers", 0, "CPU worker bands, 0 uses GOMAXPROCS")
	flag.BoolVar(&cfg.gpu, "gpu", false, "run the transform on a WebGPU device, falling back to CPU")
	flag.IntVar(&cfg.maxDim, "maxdim", 0, "downscale output so neither side exceeds maxdim, 0 keeps size")
	flag.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	tint.SetLogger(logger)

	if err := run(cfg); err != nil {
		logger.Error("tint failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	if cfg.in == "" || cfg.out == "" {
		return errors.New("both -in and -out are required")
	}
	// Sepia needs color channels and the GPU only takes 32-bit pixels.
	src, err := load(cfg.in, cfg.filter == "sepia" || cfg.gpu)
	if err != nil {
		return err
	}
	d := src.Dims()
	tint.Logger().Info("decoded", "file", cfg.in, "width", d.Width, "height", d.Height, "shape", d.Shape)

	var t filters.Transformer = filters.CPU{Workers: cfg.workers}
	if cfg.gpu {
		g, err := filters.OpenGPU()
		if err != nil {
			tint.Logger().Warn("gpu unavailable, using cpu", "err", err)
		} else {
			defer g.Release()
			t = g
		}
	}

	result, err := apply(t, src, cfg)
	if err != nil {
		return err
	}
	img, err := result.ToImage()
	if err != nil {
		return err
	}
	img = fit(img, cfg.maxDim)
	return save(cfg.out, img)
}

// apply runs the configured filter. Flag values are parsed and validated by the filter controls.
// On the CPU the filter itself processes src; a GPU transformer gets the equivalent matrix.
func apply(t filters.Transformer, src *tint.Buffer, cfg config) (*tint.Buffer, error) {
	shape := src.Dims().Shape
	gpu, onGPU := t.(*filters.GPU)
	var f *filters.PointFilter
	switch cfg.filter {
	case "gray", "grayscale":
		var err error
		f, err = filters.NewGrayscale(shape, filters.GraySingle, filters.LumaBT601)
		if err != nil {
			return nil, err
		}
		if err := setControl(f, "Layout", cfg.layout); err != nil {
			return nil, err
		}
		if err := setControl(f, "Luma", cfg.luma); err != nil {
			return nil, err
		}
		if onGPU {
			layout, _ := findValue[filters.GrayLayout](f, "Layout")
			luma, _ := findValue[filters.LumaWeights](f, "Luma")
			return filters.Grayscale(gpu, src, layout, luma)
		}
	case "sepia":
		var err error
		f, err = filters.NewSepia(shape)
		if err != nil {
			return nil, err
		}
		if err := setControl(f, "Intensity", cfg.intensity); err != nil {
			return nil, err
		}
		if onGPU {
			return gpu.Transform(src, filters.SepiaIntensity(cfg.intensity), shape)
		}
	default:
		return nil, fmt.Errorf("unknown filter %q", cfg.filter)
	}
	if c, ok := t.(filters.CPU); ok {
		f.Workers = c.Workers
	}
	return process(f, src)
}

// process runs f over all of src into a new buffer.
func process(f tint.Filter, src *tint.Buffer) (*tint.Buffer, error) {
	out, _ := f.ShapeIO()
	d := src.Dims()
	dst, err := tint.NewBuffer(d.Width, d.Height, out)
	if err != nil {
		return nil, err
	}
	if _, err := f.Process(dst.Pix, src, nil); err != nil {
		return nil, err
	}
	return dst, nil
}

func setControl(f tint.Filter, name string, value any) error {
	c, ok := tint.FindControl(f.Controls(), name)
	if !ok {
		return fmt.Errorf("filter has no %s control", name)
	}
	return c.ChangeValue(value)
}

func findValue[T any](f tint.Filter, name string) (v T, ok bool) {
	c, ok := tint.FindControl(f.Controls(), name)
	if !ok {
		return v, false
	}
	v, ok = c.ActualValue().(T)
	return v, ok
}

// load decodes path. Gray images stay single channel unless forceColor is set.
func load(path string, forceColor bool) (*tint.Buffer, error) {
	fp, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer fp.Close()
	img, format, err := image.Decode(fp)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	tint.Logger().Debug("decoded format", "format", format)
	if gray, ok := img.(*image.Gray); ok && forceColor {
		color := image.NewNRGBA(gray.Bounds())
		xdraw.Draw(color, color.Rect, gray, gray.Rect.Min, xdraw.Src)
		img = color
	}
	return tint.FromImage(img)
}

// fit scales img down with Catmull-Rom so that neither side exceeds maxDim, keeping aspect ratio.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	scale := float64(maxDim) / float64(max(w, h))
	nw, nh := max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
	var dst xdraw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(image.Rect(0, 0, nw, nh))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, nw, nh))
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	tint.Logger().Debug("scaled", "width", nw, "height", nh)
	return dst
}

func save(path string, img image.Image) error {
	fp, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := png.Encode(fp, img); err != nil {
		fp.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return fp.Close()
}
