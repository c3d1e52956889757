package avatar

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultSize is the edge length used when Prepare is given size <= 0.
const DefaultSize = 64

// ErrUnsupported is returned for data that is not a known image format.
var ErrUnsupported = errors.New("unsupported avatar format")

// Result is a prepared avatar.
type Result struct {
	Data     []byte
	Format   Format // format of Data
	Animated bool   // true when Data is the untouched input
	Width    int
	Height   int
}

// Prepare returns an avatar ready to display. Animated inputs are returned
// unchanged so they keep their frames. Static inputs are center-cropped to
// a square, scaled to size x size and encoded as PNG.
func Prepare(data []byte, size int) (Result, error) {
	format := Sniff(data)
	if format == FormatUnknown {
		return Result{}, ErrUnsupported
	}
	if size <= 0 {
		size = DefaultSize
	}

	if IsAnimated(data) {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		res := Result{Data: data, Format: format, Animated: true}
		if err == nil {
			res.Width, res.Height = cfg.Width, cfg.Height
		}
		return res, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decoding %s avatar: %w", format, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, centerSquare(src.Bounds()), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Result{}, fmt.Errorf("encoding avatar: %w", err)
	}
	return Result{Data: buf.Bytes(), Format: FormatPNG, Width: size, Height: size}, nil
}

// centerSquare returns the largest centered square inside r.
func centerSquare(r image.Rectangle) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	side := min(w, h)
	x0 := r.Min.X + (w-side)/2
	y0 := r.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}
