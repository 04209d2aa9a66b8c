package rembg

import (
	"context"
	"image"
)

// Remover returns a copy of img whose background pixels are transparent.
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}
