// Package thumbnail renders preview images for image revisions and stores
// them next to the payload in the blob store.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mesh-intelligence/collab/internal/blob"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// DefaultMaxSize bounds the longer edge of a thumbnail in pixels.
const DefaultMaxSize = 128

// ErrUndecodable is returned when an image payload cannot be decoded.
var ErrUndecodable = errors.New("image payload cannot be decoded")

// Generator produces a thumbnail for the payload at ref. It returns an empty
// ref when the content type has no thumbnail.
type Generator interface {
	Generate(ctx context.Context, fileID, ref, contentType string) (string, error)
}

// New returns an ImageGenerator when cfg enables thumbnails and Noop
// otherwise.
func New(store blob.Store, cfg types.ThumbnailConfig) Generator {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewImageGenerator(store, cfg.MaxSize)
}

// Noop never produces thumbnails.
type Noop struct{}

// Generate implements Generator.
func (Noop) Generate(context.Context, string, string, string) (string, error) {
	return "", nil
}

// ImageGenerator scales raster images down to MaxSize and stores them as PNG.
type ImageGenerator struct {
	store   blob.Store
	maxSize int
}

// NewImageGenerator uses DefaultMaxSize when maxSize is not positive.
func NewImageGenerator(store blob.Store, maxSize int) *ImageGenerator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &ImageGenerator{store: store, maxSize: maxSize}
}

// Generate implements Generator. Vector formats such as SVG are skipped.
func (g *ImageGenerator) Generate(ctx context.Context, fileID, ref, contentType string) (string, error) {
	if types.IconKindFor(contentType) != types.IconKindImage || strings.Contains(contentType, "svg") {
		return "", nil
	}

	rc, err := g.store.Open(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", ref, err)
	}
	defer rc.Close()

	src, _, err := image.Decode(rc)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", ref, ErrUndecodable, err)
	}

	dst := image.NewRGBA(fitRect(src.Bounds(), g.maxSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", fmt.Errorf("encoding thumbnail: %w", err)
	}
	thumbRef, _, err := g.store.Put(ctx, fileID, "thumb.png", &buf)
	if err != nil {
		return "", fmt.Errorf("storing thumbnail: %w", err)
	}
	return thumbRef, nil
}

// fitRect scales b so that its longer edge is at most limit, keeping the
// aspect ratio. Images already small enough keep their size.
func fitRect(b image.Rectangle, limit int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return image.Rect(0, 0, w, h)
	}
	if w >= h {
		h = h * limit / w
		w = limit
	} else {
		w = w * limit / h
		h = limit
	}
	return image.Rect(0, 0, max(w, 1), max(h, 1))
}
