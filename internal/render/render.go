// Package render decodes menu PDFs and produces one page at a time at a
// requested scale.
package render

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrParse is wrapped by every decoding or page rendering failure.
var ErrParse = errors.New("menu could not be parsed")

// Page is one rendered page. Width and Height are the natural size in PDF
// points; the pixel size is the natural size multiplied by Scale.
type Page struct {
	Number      int     `json:"number"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Scale       float64 `json:"scale"`
	PixelWidth  int     `json:"pixelWidth"`
	PixelHeight int     `json:"pixelHeight"`
	// PDF is a standalone single-page document holding just this page.
	PDF []byte `json:"-"`
}

// Document is a decoded menu.
type Document interface {
	NumPages() int
	RenderPage(ctx context.Context, number int, scale float64) (*Page, error)
}

// Decoder turns bytes into a Document.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (Document, error)
}

// NewPage sizes a page of the given natural dimensions at scale.
func NewPage(number int, width, height, scale float64) (*Page, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}
	return &Page{
		Number:      number,
		Width:       width,
		Height:      height,
		Scale:       scale,
		PixelWidth:  int(math.Round(width * scale)),
		PixelHeight: int(math.Round(height * scale)),
	}, nil
}
