package imgio

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	_ "golang.org/x/image/webp" // register WEBP decoding

	"github.com/ayush-bhavsar/rm-bg/pkg/imgutil"
)

type Info struct {
	Width  int
	Height int
	Kind   imgutil.Kind
}

// Load decodes the image at path with EXIF orientation applied. Kind
// comes from the file contents, not the extension.
func Load(path string) (image.Image, Info, error) {
	kind, err := imgutil.SniffFile(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read header of %s: %w", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	return img, Info{Width: bounds.Dx(), Height: bounds.Dy(), Kind: kind}, nil
}

// Save encodes to the format named by the extension. quality applies to
// JPEG only.
func Save(img image.Image, path string, quality int) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// FlattenOnWhite composites img over opaque white. JPEG cannot store the
// alpha channel a removal result carries.
func FlattenOnWhite(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// DownscaleMaxEdge caps the longest edge at maxEdge. maxEdge <= 0
// disables scaling.
func DownscaleMaxEdge(img image.Image, maxEdge int) image.Image {
	if maxEdge <= 0 {
		return img
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}

	if w >= h {
		return resize.Resize(uint(maxEdge), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(maxEdge), img, resize.Lanczos3)
}
