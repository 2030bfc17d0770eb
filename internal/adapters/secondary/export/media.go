package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"

	// decoders for the accepted media extensions
	_ "image/gif"
	_ "image/jpeg"

	"github.com/fogleman/gg"
	_ "golang.org/x/image/bmp"
)

// Picture box sizes in pixels used when normalizing media. Images larger
// than the box are scaled down, smaller ones are kept as they are.
const (
	maxPictureWidth  = 1200
	maxPictureHeight = 900
)

// FittedImage is a media file normalized to an 8-bit RGBA PNG
type FittedImage struct {
	PNG    []byte
	Width  int
	Height int
}

// Aspect returns width over height
func (f *FittedImage) Aspect() float64 {
	if f.Height == 0 {
		return 1
	}
	return float64(f.Width) / float64(f.Height)
}

// FitImage decodes a media file and re-encodes it as a PNG no larger than
// maxW x maxH, keeping the aspect ratio. Both renderers embed the result
// instead of the source so every supported extension ends up in one
// format.
func FitImage(path string, maxW, maxH int) (*FittedImage, error) {
	if !IsImage(path) {
		return nil, fmt.Errorf("unsupported media type: %s", filepath.Ext(path))
	}

	src, err := gg.LoadImage(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.New("image has no pixels")
	}

	w, h := fitBox(bounds.Dx(), bounds.Dy(), maxW, maxH)

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.Scale(float64(w)/float64(bounds.Dx()), float64(h)/float64(bounds.Dy()))
	dc.DrawImage(src, -bounds.Min.X, -bounds.Min.Y)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return &FittedImage{PNG: buf.Bytes(), Width: w, Height: h}, nil
}

// FitPicture normalizes a media file with the default picture box
func FitPicture(path string) (*FittedImage, error) {
	return FitImage(path, maxPictureWidth, maxPictureHeight)
}

// fitBox scales w x h down to fit inside maxW x maxH
func fitBox(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	fw := int(float64(w) * scale)
	fh := int(float64(h) * scale)
	if fw < 1 {
		fw = 1
	}
	if fh < 1 {
		fh = 1
	}
	return fw, fh
}

// placeInBox returns the offset and size that center an image of the given
// aspect ratio inside a box
func placeInBox(aspect, boxX, boxY, boxW, boxH float64) (x, y, w, h float64) {
	w, h = boxW, boxW/aspect
	if h > boxH {
		h = boxH
		w = boxH * aspect
	}
	return boxX + (boxW-w)/2, boxY + (boxH-h)/2, w, h
}

// DecodeConfig reports the pixel size of an image without decoding it fully
func DecodeConfig(data []byte) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	return cfg, err
}
