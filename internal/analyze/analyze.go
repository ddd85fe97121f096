// Package analyze probes image dimensions and derives the shared output
// canvas for a slideshow run.
package analyze

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Source is one caller-supplied image: raw bytes plus the original filename.
// Order of sources fixes slide order and must be preserved.
type Source struct {
	Name string
	Data []byte
}

// ImageInput is a probed source with its natural pixel dimensions.
type ImageInput struct {
	Name   string
	Data   []byte
	Width  int
	Height int
}

// Dimensions is the derived output canvas size.
type Dimensions struct {
	Width  int
	Height int
}

// Probe decodes the header of every source and returns the inputs in the
// same order. A source whose dimensions cannot be read fails the whole set.
func Probe(sources []Source) ([]ImageInput, error) {
	inputs := make([]ImageInput, 0, len(sources))
	for _, src := range sources {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(src.Data))
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", src.Name, err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			return nil, fmt.Errorf("probe %s: %s reports empty dimensions", src.Name, format)
		}
		inputs = append(inputs, ImageInput{
			Name:   src.Name,
			Data:   src.Data,
			Width:  cfg.Width,
			Height: cfg.Height,
		})
	}
	return inputs, nil
}

// Canvas derives the shared canvas: the maximum width and height across all
// inputs, each rounded up to even. Chroma subsampling in the encoder rejects
// odd dimensions.
func Canvas(images []ImageInput) Dimensions {
	var w, h int
	for _, img := range images {
		if img.Width > w {
			w = img.Width
		}
		if img.Height > h {
			h = img.Height
		}
	}
	return Dimensions{Width: even(w), Height: even(h)}
}

func even(n int) int {
	if n%2 == 0 {
		return n
	}
	return n + 1
}
